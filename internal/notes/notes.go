// Package notes maintains a shared per-user annotation page on the platform
// wiki, in the style of moderator "usernotes": a JSON document keyed by
// username, appended to whenever the bot observes a ban or unban.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/platform"
)

const (
	wikiPage      = "usernotes"
	schemaVersion = 1
)

// Note is one annotation on a user.
type Note struct {
	Text      string    `json:"text"`
	Moderator string    `json:"moderator"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type document struct {
	Version int               `json:"version"`
	Notes   map[string][]Note `json:"notes"`
}

// Service reads and writes the annotation wiki page.
type Service struct {
	client *platform.Client
	domain string
}

func NewService(client *platform.Client, domain string) *Service {
	return &Service{client: client, domain: domain}
}

// AddNote appends an annotation for a user. The page is read-modify-written
// whole; the platform serializes wiki edits, and note volume is low enough
// that lost updates between two nearly simultaneous bans are acceptable.
func (s *Service) AddNote(ctx context.Context, username, text, moderator, category string) error {
	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	username = models.NormalizeUsername(username)
	doc.Notes[username] = append(doc.Notes[username], Note{
		Text:      text,
		Moderator: moderator,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	})

	return s.store(ctx, doc, fmt.Sprintf("add note for %s", username))
}

// AddBanNote records a ban or unban observed in the moderation log.
func (s *Service) AddBanNote(ctx context.Context, action *models.ModAction, unban bool) error {
	reason := action.Description
	if reason == "" {
		reason = "none provided"
	}

	if unban {
		if action.Description == "was temporary" {
			return nil
		}
		return s.AddNote(ctx, action.TargetAuthor, "Unbanned.", action.Moderator, "spamwarning")
	}

	text := fmt.Sprintf("Banned, reason: %s, length: %s", reason, action.Details)
	return s.AddNote(ctx, action.TargetAuthor, text, action.Moderator, "ban")
}

func (s *Service) load(ctx context.Context) (*document, error) {
	doc := &document{Version: schemaVersion, Notes: make(map[string][]Note)}

	content, err := s.client.WikiPage(ctx, s.domain, wikiPage)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to load notes page: %w", err)
	}
	if content == "" {
		return doc, nil
	}

	if err := json.Unmarshal([]byte(content), doc); err != nil {
		return nil, fmt.Errorf("notes page is malformed: %w", err)
	}
	if doc.Notes == nil {
		doc.Notes = make(map[string][]Note)
	}
	return doc, nil
}

func (s *Service) store(ctx context.Context, doc *document, reason string) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode notes page: %w", err)
	}
	if err := s.client.UpdateWikiPage(ctx, s.domain, wikiPage, string(encoded), reason); err != nil {
		return fmt.Errorf("failed to store notes page: %w", err)
	}
	return nil
}
