// Package twitter is a small client for the v1.1 REST API.
//
// Requests are signed with OAuth1 (dghubble/oauth1) using the four secrets of a
// registered application. Authenticate checks them and returns a Session;
// FetchPosts returns a lazy Timeline that pages backward through an account's
// posts with max_id until the platform returns an empty page.
//
// Exhausted request quota is never an error: the client blocks until the window
// resets and sends the same request again.
package twitter
