package bot

import (
	"context"
	"testing"

	"github.com/modwarden/backend/internal/models"
)

func TestScanSubmissionsRemovesBotbannedContent(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.offenses.SetFlag(context.Background(), "baduser", "testdomain", models.FlagShadowBanned, true)
	tb.api.submissions = []models.Submission{{
		ID:        "s1",
		Domain:    "testdomain",
		Author:    "baduser",
		Title:     "hello",
		FlairText: "Tech",
	}}

	for i := 0; i < 2; i++ {
		if err := tb.bot.scanStream(context.Background()); err != nil {
			t.Fatalf("pass %d: scanStream error: %v", i, err)
		}
	}

	if len(tb.api.removedSubmissions) != 1 {
		t.Fatalf("expected exactly 1 removal across replays, got %v", tb.api.removedSubmissions)
	}
	if tb.api.removedSubmissions[0] != "s1" {
		t.Errorf("removed wrong submission: %s", tb.api.removedSubmissions[0])
	}
	if got := tb.events.byKind(models.EventRemoval); len(got) != 1 {
		t.Errorf("expected 1 removal event, got %d", len(got))
	}
}

func TestScanSubmissionsFilterMatch(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.filters.Create(context.Background(), &models.Filter{
		Pattern: "buy now,cheap pills",
		Domain:  "testdomain",
	})
	tb.api.submissions = []models.Submission{{
		ID:        "s1",
		Domain:    "testdomain",
		Author:    "spammer",
		Title:     "CHEAP PILLS here",
		FlairText: "Tech",
	}}

	if err := tb.bot.scanStream(context.Background()); err != nil {
		t.Fatalf("scanStream error: %v", err)
	}

	if len(tb.api.removedSubmissions) != 1 {
		t.Fatalf("expected filtered submission removed, got %v", tb.api.removedSubmissions)
	}
	hits := tb.events.byKind(models.EventFilterHit)
	if len(hits) != 1 || hits[0].Target != "spammer" {
		t.Fatalf("expected 1 filter hit for spammer, got %+v", hits)
	}
}

func TestScanCommentsForwardsTrackedUsers(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.offenses.SetFlag(context.Background(), "watched", "testdomain", models.FlagTracked, true)
	tb.api.comments = []models.Comment{{
		ID:     "c1",
		Domain: "testdomain",
		Author: "watched",
		Body:   "something suspicious",
	}}

	if err := tb.bot.scanStream(context.Background()); err != nil {
		t.Fatalf("scanStream error: %v", err)
	}

	if tb.notifier.count() != 1 {
		t.Fatalf("expected 1 tracked copy, got %d", tb.notifier.count())
	}
	if len(tb.api.removedComments) != 0 {
		t.Errorf("tracked content must not be removed, got %v", tb.api.removedComments)
	}
}

func TestScanCommentsRemovesStickyReplies(t *testing.T) {
	cfg := testConfig()
	cfg.WatchStickies = true
	tb := newTestBot(cfg)
	tb.stickies.Create(context.Background(), &models.WatchedSticky{
		SubmissionID: "s1",
		CommentID:    "sticky1",
		Domain:       "testdomain",
	})
	tb.api.comments = []models.Comment{
		{ID: "c1", Domain: "testdomain", Author: "someone", ParentID: "sticky1", Body: "reply"},
		{ID: "c2", Domain: "testdomain", Author: "someone", ParentID: "other", Body: "unrelated"},
	}

	if err := tb.bot.scanStream(context.Background()); err != nil {
		t.Fatalf("scanStream error: %v", err)
	}

	if len(tb.api.removedComments) != 1 || tb.api.removedComments[0] != "c1" {
		t.Fatalf("expected only the sticky reply removed, got %v", tb.api.removedComments)
	}
}

func TestScanCommentsIgnoresOwnComments(t *testing.T) {
	tb := newTestBot(testConfig())
	tb.offenses.SetFlag(context.Background(), actorBot, "testdomain", models.FlagShadowBanned, true)
	tb.api.comments = []models.Comment{{
		ID:     "c1",
		Domain: "testdomain",
		Author: actorBot,
		Body:   "bot housekeeping",
	}}

	if err := tb.bot.scanStream(context.Background()); err != nil {
		t.Fatalf("scanStream error: %v", err)
	}
	if len(tb.api.removedComments) != 0 {
		t.Fatalf("bot must never act on its own comments, got %v", tb.api.removedComments)
	}
}
