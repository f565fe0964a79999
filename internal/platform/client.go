// Package platform wraps the moderation platform's REST API: paged reads of
// the moderation log and content streams, plus the write actions the bot
// takes (remove, approve, flair, comment, ban).
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/modwarden/backend/config"
	"github.com/modwarden/backend/internal/models"
	"golang.org/x/time/rate"
)

// Client talks to the moderation platform API. All calls share one pacing
// limiter so the bot stays inside the platform's rate budget regardless of
// how many scanner loops are running.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *retryablehttp.Client
	limiter   *rate.Limiter
}

// NewClient builds a Client from platform config. Network-level flakiness is
// retried by the underlying HTTP client; anything that still fails surfaces
// as ErrTransient.
func NewClient(cfg config.PlatformConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil

	return &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http:      rc,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 2),
	}
}

// ModLog returns the most recent moderation actions, newest first.
func (c *Client) ModLog(ctx context.Context, domain string, limit int) ([]models.ModAction, error) {
	var actions []models.ModAction
	err := c.get(ctx, "/api/mod/log", pageQuery(domain, limit), &actions)
	return actions, err
}

// NewSubmissions returns the newest submissions in the domain.
func (c *Client) NewSubmissions(ctx context.Context, domain string, limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := c.get(ctx, "/api/submissions/new", pageQuery(domain, limit), &submissions)
	return submissions, err
}

// NewComments returns the newest comments in the domain.
func (c *Client) NewComments(ctx context.Context, domain string, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.get(ctx, "/api/comments/new", pageQuery(domain, limit), &comments)
	return comments, err
}

// ModQueueSize returns the number of items waiting in the moderation queue.
func (c *Client) ModQueueSize(ctx context.Context, domain string, limit int) (int, error) {
	var items []json.RawMessage
	if err := c.get(ctx, "/api/mod/queue", pageQuery(domain, limit), &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Submission re-fetches a single submission by id.
func (c *Client) Submission(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	if err := c.get(ctx, "/api/submissions/"+id, nil, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

// SubmissionComments returns the comment tree of a submission, flattened.
func (c *Client) SubmissionComments(ctx context.Context, id string) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.get(ctx, "/api/submissions/"+id+"/comments", nil, &comments)
	return comments, err
}

// Comment re-fetches a single comment by id.
func (c *Client) Comment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := c.get(ctx, "/api/comments/"+id, nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// FlairChoices returns the flair catalog selectable on the given submission.
func (c *Client) FlairChoices(ctx context.Context, submissionID string) ([]models.FlairChoice, error) {
	var choices []models.FlairChoice
	err := c.get(ctx, "/api/submissions/"+submissionID+"/flair_choices", nil, &choices)
	return choices, err
}

// SelectFlair applies a flair template to a submission.
func (c *Client) SelectFlair(ctx context.Context, submissionID string, choice models.FlairChoice) error {
	return c.post(ctx, "/api/submissions/"+submissionID+"/flair", choice, nil)
}

// RemoveSubmission removes a submission as a moderator.
func (c *Client) RemoveSubmission(ctx context.Context, id string) error {
	return c.post(ctx, "/api/submissions/"+id+"/remove", nil, nil)
}

// ApproveSubmission re-approves a removed submission.
func (c *Client) ApproveSubmission(ctx context.Context, id string) error {
	return c.post(ctx, "/api/submissions/"+id+"/approve", nil, nil)
}

// ReportSubmission re-files a report on a submission.
func (c *Client) ReportSubmission(ctx context.Context, id, reason string) error {
	return c.post(ctx, "/api/submissions/"+id+"/report", map[string]string{"reason": reason}, nil)
}

// RemoveComment removes a comment as a moderator.
func (c *Client) RemoveComment(ctx context.Context, id string) error {
	return c.post(ctx, "/api/comments/"+id+"/remove", nil, nil)
}

// PostComment replies to a submission and returns the created comment.
func (c *Client) PostComment(ctx context.Context, submissionID, body string) (*models.Comment, error) {
	var comment models.Comment
	err := c.post(ctx, "/api/submissions/"+submissionID+"/comment",
		map[string]string{"body": body}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DistinguishComment marks a comment as a moderator comment.
func (c *Client) DistinguishComment(ctx context.Context, id string) error {
	return c.post(ctx, "/api/comments/"+id+"/distinguish", nil, nil)
}

// BanUser bans a user from the domain. days == 0 means permanent.
func (c *Client) BanUser(ctx context.Context, domain, username, reason string, days int) error {
	return c.post(ctx, "/api/domains/"+domain+"/ban",
		map[string]any{"username": username, "reason": reason, "days": days}, nil)
}

// IsBanned reports whether a user is currently banned from the domain.
func (c *Client) IsBanned(ctx context.Context, domain, username string) (bool, error) {
	var result struct {
		Banned bool `json:"banned"`
	}
	q := url.Values{}
	q.Set("username", username)
	if err := c.get(ctx, "/api/domains/"+domain+"/banned", q, &result); err != nil {
		return false, err
	}
	return result.Banned, nil
}

// ComposeModmail sends a message to the domain's moderator inbox.
func (c *Client) ComposeModmail(ctx context.Context, domain, subject, body string) error {
	return c.post(ctx, "/api/domains/"+domain+"/modmail",
		map[string]string{"subject": subject, "body": body}, nil)
}

// WikiPage reads a wiki page's raw content.
func (c *Client) WikiPage(ctx context.Context, domain, page string) (string, error) {
	var result struct {
		Content string `json:"content"`
	}
	if err := c.get(ctx, "/api/domains/"+domain+"/wiki/"+page, nil, &result); err != nil {
		return "", err
	}
	return result.Content, nil
}

// UpdateWikiPage overwrites a wiki page's content.
func (c *Client) UpdateWikiPage(ctx context.Context, domain, page, content, reason string) error {
	return c.post(ctx, "/api/domains/"+domain+"/wiki/"+page,
		map[string]string{"content": content, "reason": reason}, nil)
}

func pageQuery(domain string, limit int) url.Values {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Retries exhausted or connection refused: treat as transient so the
		// scan pass sleeps and retries whole.
		return fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Endpoint: path}
		if statusErr.Unwrap() == nil {
			return fmt.Errorf("platform: %s returned unexpected status %d", path, resp.StatusCode)
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
