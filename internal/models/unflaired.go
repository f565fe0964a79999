package models

import "time"

// UnflairedSubmission tracks a submission that was removed for missing flair
// and is awaiting a flair decision. CommentID is the instructional comment
// posted under the removed submission. At most one live record exists per
// submission id; the record is deleted when the submission is resolved or
// abandoned past overtime.
type UnflairedSubmission struct {
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	CommentID    string    `json:"comment_id" db:"comment_id"`
	Domain       string    `json:"domain" db:"domain"`
	Author       string    `json:"author" db:"author"`
	SubmittedAt  time.Time `json:"submitted_at" db:"submitted_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// WatchedSticky marks a distinguished sticky comment whose replies the stream
// scanner removes.
type WatchedSticky struct {
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	CommentID    string    `json:"comment_id" db:"comment_id"`
	Domain       string    `json:"domain" db:"domain"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
