package models

import (
	"encoding/json"
	"time"
)

// Post is one archived tweet, stored as a row of the tweets table
type Post struct {
	ID        int64     `gorm:"column:status_id;primaryKey;autoIncrement:false" json:"id"`
	Timestamp time.Time `gorm:"column:timestamp" json:"timestamp"`
	Author    string    `gorm:"column:user" json:"user"`
	Text      string    `gorm:"column:text" json:"text"`
}

// TableName keeps existing tweets.db files readable
func (Post) TableName() string {
	return "tweets"
}

// StoredTimeLayout is how timestamps are written to SQLite archives
const StoredTimeLayout = "2006-01-02 15:04:05"

// CreatedAtLayout is the platform's created_at format
const CreatedAtLayout = time.RubyDate

// Status is a tweet as returned by statuses/user_timeline
type Status struct {
	ID        int64  `json:"id"`
	IDStr     string `json:"id_str"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
	FullText  string `json:"full_text,omitempty"`
	User      User   `json:"user"`

	// RetweetedStatus is only present on reposts
	RetweetedStatus json.RawMessage `json:"retweeted_status,omitempty"`
}

// IsRepost reports whether the status is a retweet of another status
func (s Status) IsRepost() bool {
	return len(s.RetweetedStatus) > 0 && string(s.RetweetedStatus) != "null"
}

// User is the author object embedded in a status, and the
// account/verify_credentials response
type User struct {
	ID         int64  `json:"id"`
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// ErrorResponse is the platform's error body
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

// APIError is one entry of ErrorResponse
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
