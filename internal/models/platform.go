package models

import "time"

// Moderation log action kinds as delivered by the platform. Kinds outside
// this set are ignored by the modlog scanner.
const (
	ActionRemoveComment     = "removecomment"
	ActionRemoveSubmission  = "removelink"
	ActionApproveComment    = "approvecomment"
	ActionApproveSubmission = "approvelink"
	ActionBanUser           = "banuser"
	ActionUnbanUser         = "unbanuser"
	ActionSticky            = "sticky"
)

// ModAction is one entry of the platform's moderation log.
type ModAction struct {
	ID             string    `json:"id"`
	Domain         string    `json:"domain"`
	Action         string    `json:"action"`
	TargetAuthor   string    `json:"target_author"`
	TargetFullname string    `json:"target_fullname"`
	Details        string    `json:"details"`
	Description    string    `json:"description"`
	Moderator      string    `json:"moderator"`
	CreatedAt      time.Time `json:"created_at"`
}

// Submission is a platform post as returned by the new-submissions page.
type Submission struct {
	ID        string    `json:"id"`
	Fullname  string    `json:"fullname"`
	Domain    string    `json:"domain"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Permalink string    `json:"permalink"`
	FlairText string    `json:"flair_text,omitempty"`
	Report    string    `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Flaired reports whether the submission carries a category flair.
func (s *Submission) Flaired() bool {
	return s.FlairText != ""
}

// Comment is a platform comment as returned by the new-comments page or the
// reply inbox.
type Comment struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	Author       string    `json:"author"`
	Body         string    `json:"body"`
	ParentID     string    `json:"parent_id"`
	SubmissionID string    `json:"submission_id"`
	Permalink    string    `json:"permalink"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlairChoice is one selectable flair for a domain: display label plus the
// opaque template id used to apply it.
type FlairChoice struct {
	Label      string `json:"label"`
	TemplateID string `json:"template_id"`
}
