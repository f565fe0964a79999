package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/modwarden/backend/config"
	"github.com/modwarden/backend/internal/models"
	"github.com/modwarden/backend/internal/notify"
	"github.com/modwarden/backend/internal/repository"
)

// In-memory doubles for the bot's dependencies. They mirror the repository
// semantics closely enough that scanner behavior can be asserted without a
// database.

type fakeSeen struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeSeen() *fakeSeen {
	return &fakeSeen{seen: make(map[string]bool)}
}

func (f *fakeSeen) MarkSeen(ctx context.Context, itemID, domain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[itemID] {
		return repository.ErrAlreadySeen
	}
	f.seen[itemID] = true
	return nil
}

func (f *fakeSeen) HasSeen(ctx context.Context, itemID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[itemID], nil
}

func (f *fakeSeen) Sweep(ctx context.Context) (int64, error) { return 0, nil }

type fakeOffenses struct {
	mu      sync.Mutex
	records map[string]*models.UserOffense
}

func newFakeOffenses() *fakeOffenses {
	return &fakeOffenses{records: make(map[string]*models.UserOffense)}
}

func (f *fakeOffenses) getOrCreateLocked(username, domain string) *models.UserOffense {
	username = models.NormalizeUsername(username)
	record, ok := f.records[username]
	if !ok {
		record = &models.UserOffense{Username: username, Domain: domain}
		f.records[username] = record
	}
	return record
}

func (f *fakeOffenses) GetOrCreate(ctx context.Context, username, domain string) (*models.UserOffense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.getOrCreateLocked(username, domain)
	copied := *record
	return &copied, nil
}

func (f *fakeOffenses) Get(ctx context.Context, username, domain string) (*models.UserOffense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[models.NormalizeUsername(username)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeOffenses) Increment(ctx context.Context, username, domain string, field models.OffenseField) (*models.UserOffense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.getOrCreateLocked(username, domain)
	switch field {
	case models.FieldRemovedComments:
		record.RemovedComments++
	case models.FieldRemovedSubmissions:
		record.RemovedSubmissions++
	case models.FieldApprovedComments:
		record.ApprovedComments++
	case models.FieldApprovedSubmissions:
		record.ApprovedSubmissions++
	case models.FieldBans:
		record.Bans++
	default:
		return nil, fmt.Errorf("unknown offense field: %s", field)
	}
	copied := *record
	return &copied, nil
}

func (f *fakeOffenses) SetFlag(ctx context.Context, username, domain string, flag models.OffenseFlag, value bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.getOrCreateLocked(username, domain)
	if record.Flag(flag) == value {
		return false, nil
	}
	switch flag {
	case models.FlagShadowBanned:
		record.ShadowBanned = value
	case models.FlagTracked:
		record.Tracked = value
	case models.FlagWarningsMuted:
		record.WarningsMuted = value
	}
	return true, nil
}

func (f *fakeOffenses) SetLastWarned(ctx context.Context, username, domain string, warnedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.getOrCreateLocked(username, domain)
	record.LastWarnedAt = &warnedAt
	return nil
}

type fakeUnflaired struct {
	mu      sync.Mutex
	records map[string]models.UnflairedSubmission
}

func newFakeUnflaired() *fakeUnflaired {
	return &fakeUnflaired{records: make(map[string]models.UnflairedSubmission)}
}

func (f *fakeUnflaired) Create(ctx context.Context, record *models.UnflairedSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.SubmissionID] = *record
	return nil
}

func (f *fakeUnflaired) Delete(ctx context.Context, submissionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, submissionID)
	return nil
}

func (f *fakeUnflaired) Exists(ctx context.Context, submissionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[submissionID]
	return ok, nil
}

func (f *fakeUnflaired) List(ctx context.Context, domain string) ([]models.UnflairedSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UnflairedSubmission
	for _, record := range f.records {
		out = append(out, record)
	}
	return out, nil
}

type fakeFilters struct {
	filters []models.Filter
}

func (f *fakeFilters) Create(ctx context.Context, filter *models.Filter) error {
	f.filters = append(f.filters, *filter)
	return nil
}

func (f *fakeFilters) Delete(ctx context.Context, domain, pattern string) error {
	kept := f.filters[:0]
	for _, filter := range f.filters {
		if filter.Pattern != pattern {
			kept = append(kept, filter)
		}
	}
	f.filters = kept
	return nil
}

func (f *fakeFilters) List(ctx context.Context, domain string) ([]models.Filter, error) {
	return f.filters, nil
}

func (f *fakeFilters) PurgeExpired(ctx context.Context, domain string, now time.Time) error {
	kept := f.filters[:0]
	for _, filter := range f.filters {
		if !filter.Expired(now) {
			kept = append(kept, filter)
		}
	}
	f.filters = kept
	return nil
}

type fakeStickies struct {
	stickies []models.WatchedSticky
}

func (f *fakeStickies) Create(ctx context.Context, sticky *models.WatchedSticky) error {
	f.stickies = append(f.stickies, *sticky)
	return nil
}

func (f *fakeStickies) CommentIDs(ctx context.Context, domain string) ([]string, error) {
	ids := make([]string, 0, len(f.stickies))
	for _, sticky := range f.stickies {
		ids = append(ids, sticky.CommentID)
	}
	return ids, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.ModEvent
}

func (f *fakeEvents) Create(ctx context.Context, event *models.ModEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEvents) byKind(kind string) []models.ModEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ModEvent
	for _, event := range f.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []*notify.Message
	fail     bool
}

func (f *fakeNotifier) Send(ctx context.Context, message *notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("webhook down")
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// fakeAPI records every write action and serves canned reads.
type fakeAPI struct {
	mu sync.Mutex

	modlog      []models.ModAction
	submissions []models.Submission
	comments    []models.Comment
	queueSize   int

	submissionsByID    map[string]*models.Submission
	submissionComments map[string][]models.Comment
	flairChoices       []models.FlairChoice
	bannedUsers        map[string]bool

	postCommentErr error
	nextCommentID  int

	removedSubmissions  []string
	approvedSubmissions []string
	reportedSubmissions []string
	removedComments     []string
	postedComments      []models.Comment
	distinguished       []string
	selectedFlairs      map[string]models.FlairChoice
	bans                []string
	modmails            []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		submissionsByID:    make(map[string]*models.Submission),
		submissionComments: make(map[string][]models.Comment),
		bannedUsers:        make(map[string]bool),
		selectedFlairs:     make(map[string]models.FlairChoice),
	}
}

func (f *fakeAPI) ModLog(ctx context.Context, domain string, limit int) ([]models.ModAction, error) {
	return f.modlog, nil
}

func (f *fakeAPI) NewSubmissions(ctx context.Context, domain string, limit int) ([]models.Submission, error) {
	return f.submissions, nil
}

func (f *fakeAPI) NewComments(ctx context.Context, domain string, limit int) ([]models.Comment, error) {
	return f.comments, nil
}

func (f *fakeAPI) ModQueueSize(ctx context.Context, domain string, limit int) (int, error) {
	return f.queueSize, nil
}

func (f *fakeAPI) Submission(ctx context.Context, id string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	submission, ok := f.submissionsByID[id]
	if !ok {
		return nil, errors.New("submission not found")
	}
	copied := *submission
	return &copied, nil
}

func (f *fakeAPI) SubmissionComments(ctx context.Context, id string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissionComments[id], nil
}

func (f *fakeAPI) Comment(ctx context.Context, id string) (*models.Comment, error) {
	for i := range f.comments {
		if f.comments[i].ID == id {
			copied := f.comments[i]
			return &copied, nil
		}
	}
	return nil, errors.New("comment not found")
}

func (f *fakeAPI) FlairChoices(ctx context.Context, submissionID string) ([]models.FlairChoice, error) {
	return f.flairChoices, nil
}

func (f *fakeAPI) SelectFlair(ctx context.Context, submissionID string, choice models.FlairChoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedFlairs[submissionID] = choice
	if submission, ok := f.submissionsByID[submissionID]; ok {
		submission.FlairText = choice.Label
	}
	return nil
}

func (f *fakeAPI) RemoveSubmission(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedSubmissions = append(f.removedSubmissions, id)
	return nil
}

func (f *fakeAPI) ApproveSubmission(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvedSubmissions = append(f.approvedSubmissions, id)
	return nil
}

func (f *fakeAPI) ReportSubmission(ctx context.Context, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportedSubmissions = append(f.reportedSubmissions, id)
	return nil
}

func (f *fakeAPI) RemoveComment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removedComments = append(f.removedComments, id)
	return nil
}

func (f *fakeAPI) PostComment(ctx context.Context, submissionID, body string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postCommentErr != nil {
		return nil, f.postCommentErr
	}
	f.nextCommentID++
	comment := models.Comment{
		ID:           fmt.Sprintf("c%d", f.nextCommentID),
		SubmissionID: submissionID,
		Body:         body,
		Author:       actorBot,
	}
	f.postedComments = append(f.postedComments, comment)
	return &comment, nil
}

func (f *fakeAPI) DistinguishComment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.distinguished = append(f.distinguished, id)
	return nil
}

func (f *fakeAPI) BanUser(ctx context.Context, domain, username, reason string, days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bans = append(f.bans, username)
	return nil
}

func (f *fakeAPI) IsBanned(ctx context.Context, domain, username string) (bool, error) {
	return f.bannedUsers[username], nil
}

func (f *fakeAPI) ComposeModmail(ctx context.Context, domain, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modmails = append(f.modmails, body)
	return nil
}

// testBot bundles a Bot with its fakes for assertions.
type testBot struct {
	bot      *Bot
	api      *fakeAPI
	seen     *fakeSeen
	offenses *fakeOffenses
	store    *fakeUnflaired
	filters  *fakeFilters
	stickies *fakeStickies
	events   *fakeEvents
	notifier *fakeNotifier
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() config.BotConfig {
	return config.BotConfig{
		Domain:              "testdomain",
		PollInterval:        time.Second,
		ModlogPageSize:      20,
		StreamPageSize:      50,
		DedupRetention:      24 * time.Hour,
		GracePeriod:         600 * time.Second,
		Overtime:            13600 * time.Second,
		WarnCooldown:        24 * time.Hour,
		CommentThreshold:    10,
		SubmissionThreshold: 5,
		BanThreshold:        1,
		QueueWarnThreshold:  30,
		QueueWarnCooldown:   2 * time.Hour,
		EnableFlair:         true,
		EnableBotbans:       true,
		EnableTracking:      true,
	}
}

func newTestBot(cfg config.BotConfig) *testBot {
	tb := &testBot{
		api:      newFakeAPI(),
		seen:     newFakeSeen(),
		offenses: newFakeOffenses(),
		store:    newFakeUnflaired(),
		filters:  &fakeFilters{},
		stickies: &fakeStickies{},
		events:   &fakeEvents{},
		notifier: &fakeNotifier{},
		clock:    &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	tb.bot = New(cfg, tb.api, tb.seen, tb.offenses, tb.store,
		tb.filters, tb.stickies, tb.events, nil, tb.notifier, nil)
	tb.bot.now = tb.clock.Now
	return tb
}
