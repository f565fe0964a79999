package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modwarden/backend/internal/models"
)

func flairChoices() []models.FlairChoice {
	return []models.FlairChoice{
		{Label: "Tech", TemplateID: "t-1"},
		{Label: "Gaming", TemplateID: "t-2"},
	}
}

func TestConsiderWithinGracePeriod(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	submission := &models.Submission{
		ID:        "s1",
		Domain:    "testdomain",
		Author:    "author1",
		Title:     "untitled",
		CreatedAt: tb.clock.Now().Add(-5 * time.Minute),
	}

	tb.bot.flair.Consider(context.Background(), submission)

	if len(tb.api.removedSubmissions) != 0 {
		t.Fatalf("submission inside grace period must not be removed, got %v", tb.api.removedSubmissions)
	}
	if exists, _ := tb.store.Exists(context.Background(), "s1"); exists {
		t.Fatal("nothing should be persisted inside the grace period")
	}
}

func TestConsiderPastGracePeriod(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	submission := &models.Submission{
		ID:        "s1",
		Domain:    "testdomain",
		Author:    "author1",
		Title:     "untitled",
		CreatedAt: tb.clock.Now().Add(-11 * time.Minute),
	}

	tb.bot.flair.Consider(context.Background(), submission)

	if len(tb.api.postedComments) != 1 {
		t.Fatalf("expected instructional comment, got %d", len(tb.api.postedComments))
	}
	if len(tb.api.distinguished) != 1 {
		t.Errorf("expected comment to be distinguished")
	}
	if len(tb.api.removedSubmissions) != 1 || tb.api.removedSubmissions[0] != "s1" {
		t.Fatalf("expected submission removed, got %v", tb.api.removedSubmissions)
	}
	if exists, _ := tb.store.Exists(context.Background(), "s1"); !exists {
		t.Fatal("expected unflaired record to be persisted")
	}

	// A second sighting of the same submission must not act again.
	tb.bot.flair.Consider(context.Background(), submission)
	if len(tb.api.postedComments) != 1 {
		t.Fatalf("repeat sighting must not post another comment, got %d", len(tb.api.postedComments))
	}
}

func TestConsiderAbortsWhenCommentFails(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	tb.api.postCommentErr = errors.New("api rejected comment")
	submission := &models.Submission{
		ID:        "s1",
		Domain:    "testdomain",
		Author:    "author1",
		CreatedAt: tb.clock.Now().Add(-11 * time.Minute),
	}

	tb.bot.flair.Consider(context.Background(), submission)

	if len(tb.api.removedSubmissions) != 0 {
		t.Fatal("submission must stay up when the comment cannot be posted")
	}
	if exists, _ := tb.store.Exists(context.Background(), "s1"); exists {
		t.Fatal("nothing should be persisted when the comment step failed")
	}
}

func TestRecheckResolvesFlairedSubmission(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	tb.store.Create(context.Background(), &models.UnflairedSubmission{
		SubmissionID: "s1",
		CommentID:    "bc1",
		Domain:       "testdomain",
		Author:       "author1",
		SubmittedAt:  tb.clock.Now().Add(-20 * time.Minute),
	})
	tb.api.submissionsByID["s1"] = &models.Submission{
		ID:        "s1",
		Domain:    "testdomain",
		Author:    "author1",
		FlairText: "Tech",
		Report:    "user report: spam",
	}

	if err := tb.bot.flair.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(tb.api.approvedSubmissions) != 1 || tb.api.approvedSubmissions[0] != "s1" {
		t.Fatalf("expected re-approval, got %v", tb.api.approvedSubmissions)
	}
	if len(tb.api.reportedSubmissions) != 1 {
		t.Errorf("expected report to be re-filed, got %v", tb.api.reportedSubmissions)
	}
	if len(tb.api.removedComments) != 1 || tb.api.removedComments[0] != "bc1" {
		t.Errorf("expected bot comment removed, got %v", tb.api.removedComments)
	}
	if exists, _ := tb.store.Exists(context.Background(), "s1"); exists {
		t.Fatal("resolved record must be deleted")
	}
	if got := tb.events.byKind(models.EventFlairResolved); len(got) != 1 {
		t.Errorf("expected flair resolved event, got %d", len(got))
	}
}

func TestRecheckAppliesReplyFlair(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	tb.store.Create(context.Background(), &models.UnflairedSubmission{
		SubmissionID: "s1",
		CommentID:    "bc1",
		Domain:       "testdomain",
		Author:       "author1",
		SubmittedAt:  tb.clock.Now().Add(-20 * time.Minute),
	})
	tb.api.submissionsByID["s1"] = &models.Submission{
		ID:     "s1",
		Domain: "testdomain",
		Author: "author1",
	}
	tb.api.submissionComments["s1"] = []models.Comment{
		{ID: "r1", Author: "bystander", Body: "tech"},
		{ID: "r2", Author: "author1", Body: "this is a much longer reply naming tech somewhere"},
		{ID: "r3", Author: "author1", Body: `"Tech"`},
	}

	if err := tb.bot.flair.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	choice, ok := tb.api.selectedFlairs["s1"]
	if !ok {
		t.Fatal("expected a flair to be selected from the author's reply")
	}
	if choice.TemplateID != "t-1" {
		t.Errorf("expected Tech template, got %s", choice.TemplateID)
	}
	if len(tb.api.approvedSubmissions) != 1 {
		t.Errorf("expected re-approval after reply flair, got %v", tb.api.approvedSubmissions)
	}
	if exists, _ := tb.store.Exists(context.Background(), "s1"); exists {
		t.Fatal("resolved record must be deleted")
	}
}

func TestRecheckAbandonsAfterOvertime(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	tb.store.Create(context.Background(), &models.UnflairedSubmission{
		SubmissionID: "s1",
		CommentID:    "bc1",
		Domain:       "testdomain",
		Author:       "author1",
		SubmittedAt:  tb.clock.Now().Add(-4 * time.Hour),
	})
	tb.api.submissionsByID["s1"] = &models.Submission{
		ID:     "s1",
		Domain: "testdomain",
		Author: "author1",
	}

	if err := tb.bot.flair.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(tb.api.approvedSubmissions) != 0 {
		t.Fatal("abandoned submission must not be approved")
	}
	if len(tb.api.removedComments) != 1 || tb.api.removedComments[0] != "bc1" {
		t.Errorf("expected bot comment removed, got %v", tb.api.removedComments)
	}
	if exists, _ := tb.store.Exists(context.Background(), "s1"); exists {
		t.Fatal("abandoned record must be deleted")
	}
	if got := tb.events.byKind(models.EventFlairAbandoned); len(got) != 1 {
		t.Errorf("expected flair abandoned event, got %d", len(got))
	}
}

func TestRecheckBeforeOvertimeKeepsRecord(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.api.flairChoices = flairChoices()
	tb.store.Create(context.Background(), &models.UnflairedSubmission{
		SubmissionID: "s1",
		CommentID:    "bc1",
		Domain:       "testdomain",
		Author:       "author1",
		SubmittedAt:  tb.clock.Now().Add(-time.Hour),
	})
	tb.api.submissionsByID["s1"] = &models.Submission{
		ID:     "s1",
		Domain: "testdomain",
		Author: "author1",
	}

	if err := tb.bot.flair.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if exists, _ := tb.store.Exists(context.Background(), "s1"); !exists {
		t.Fatal("record must survive until flaired or overtime")
	}
}
