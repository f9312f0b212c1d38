package twitter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the v1.1 REST API root
	DefaultBaseURL = "https://api.twitter.com/1.1"

	// VerifyCredentialsEndpoint checks the credentials and returns the authenticated user
	VerifyCredentialsEndpoint = "account/verify_credentials"

	// UserTimelineEndpoint pages through an account's posts, newest first
	UserTimelineEndpoint = "statuses/user_timeline"

	// DefaultPageSize is the number of posts requested per page
	DefaultPageSize = 200

	// MaxPageSize is the largest count the timeline endpoint accepts
	MaxPageSize = 200
)

// endpointURL joins the base URL, the endpoint and the query string
func endpointURL(baseURL, endpoint string, params url.Values) string {
	u := strings.TrimRight(baseURL, "/") + "/" + endpoint + ".json"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// timelineParams builds the user_timeline query. maxID is sent as-is; 0 omits it.
func timelineParams(account string, count int, maxID int64, excludeReposts bool) url.Values {
	if count <= 0 {
		count = DefaultPageSize
	} else if count > MaxPageSize {
		count = MaxPageSize
	}

	params := url.Values{}
	params.Set("screen_name", account)
	params.Set("count", strconv.Itoa(count))
	if excludeReposts {
		params.Set("include_rts", "false")
	}
	if maxID > 0 {
		params.Set("max_id", strconv.FormatInt(maxID, 10))
	}
	return params
}

// SanitizeScreenName strips a leading @ and trailing slashes or spaces
func SanitizeScreenName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "@")
	return strings.TrimRight(name, "/ ")
}

// IsValidScreenName checks the platform's screen name rules: 1 to 15 letters, digits or underscores
func IsValidScreenName(name string) bool {
	if name == "" || len(name) > 15 {
		return false
	}
	for _, char := range name {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}
