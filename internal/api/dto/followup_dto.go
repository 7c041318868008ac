package dto

import "time"

// FollowUpForm is submitted by the follow-up create and edit pages.
// Date accepts RFC 3339 or the HTML datetime-local layout.
type FollowUpForm struct {
	Ticket *string `json:"ticket" form:"ticket"`
	Title  *string `json:"title" form:"title"`
	Text   *string `json:"text" form:"text"`
	Date   *string `json:"date" form:"date"`
}

// FollowUpResponse describes a follow-up.
type FollowUpResponse struct {
	ID       int64     `json:"id"`
	Ticket   int64     `json:"ticket"`
	Date     time.Time `json:"date"`
	Title    string    `json:"title"`
	Text     *string   `json:"text"`
	User     *int64    `json:"user"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// FollowUpFormInitial pre-fills the create form from the query string.
type FollowUpFormInitial struct {
	Ticket *int64 `json:"ticket"`
	User   int64  `json:"user"`
}

// AttachmentResponse describes stored attachment metadata.
type AttachmentResponse struct {
	ID          int64     `json:"id"`
	Ticket      int64     `json:"ticket"`
	File        string    `json:"file"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	User        *int64    `json:"user"`
	Created     time.Time `json:"created"`
	URL         string    `json:"url"`
}
