// Package notify builds and delivers messages to the chat platform's
// incoming webhook: attachments with colored severity, fields, and action
// buttons that round-trip through the interactive callback endpoint.
package notify

import "encoding/json"

// Attachment colors understood by the chat platform.
const (
	ColorGood    = "good"
	ColorWarning = "warning"
	ColorDanger  = "danger"
	ColorInfo    = "#5c96ab"
)

// Message is one outbound chat message.
type Message struct {
	Text        string        `json:"text,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

// Attachment is one rich block within a message.
type Attachment struct {
	Title      string   `json:"title,omitempty"`
	TitleLink  string   `json:"title_link,omitempty"`
	Text       string   `json:"text,omitempty"`
	Color      string   `json:"color,omitempty"`
	Footer     string   `json:"footer,omitempty"`
	CallbackID string   `json:"callback_id,omitempty"`
	Fields     []Field  `json:"fields,omitempty"`
	Actions    []Button `json:"actions,omitempty"`
}

// Field is a short titled value rendered in a two-column layout.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Button is an interactive action. Value encodes the command and its
// argument ("botban_username"); the callback endpoint splits it back apart.
type Button struct {
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Text    string         `json:"text"`
	Value   string         `json:"value"`
	Style   string         `json:"style,omitempty"`
	Confirm *ButtonConfirm `json:"confirm,omitempty"`
}

// ButtonConfirm asks the operator to confirm before the action fires.
type ButtonConfirm struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	OkText      string `json:"ok_text"`
	DismissText string `json:"dismiss_text"`
}

// NewMessage creates a message with optional leading text.
func NewMessage(text string) *Message {
	return &Message{Text: text}
}

// AddAttachment appends an attachment and returns it for further building.
func (m *Message) AddAttachment(title, titleLink, text, color string) *Attachment {
	attachment := &Attachment{
		Title:     title,
		TitleLink: titleLink,
		Text:      text,
		Color:     color,
	}
	m.Attachments = append(m.Attachments, attachment)
	return attachment
}

// JSON renders the message payload.
func (m *Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// AddField appends a short field to the attachment.
func (a *Attachment) AddField(title, value string) *Attachment {
	a.Fields = append(a.Fields, Field{Title: title, Value: value, Short: true})
	return a
}

// AddButton appends an action button. An empty style renders the default.
func (a *Attachment) AddButton(text, value, style string) *Attachment {
	a.Actions = append(a.Actions, Button{
		Type:  "button",
		Name:  text,
		Text:  text,
		Value: value,
		Style: style,
	})
	return a
}

// AddConfirmButton appends a button guarded by a confirmation prompt.
func (a *Attachment) AddConfirmButton(text, value, style, confirmText string) *Attachment {
	a.Actions = append(a.Actions, Button{
		Type:  "button",
		Name:  text,
		Text:  text,
		Value: value,
		Style: style,
		Confirm: &ButtonConfirm{
			Title:       "Are you sure?",
			Text:        confirmText,
			OkText:      "Yes",
			DismissText: "Cancel",
		},
	})
	return a
}
