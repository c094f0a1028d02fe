package kothservice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake KOTH Repo
// ------------------------

// FakeKothRepo keeps state in memory. Set a XxxFunc to override one call.
type FakeKothRepo struct {
	mu    sync.Mutex
	trace []string

	settings    map[sharedtypes.GuildID]kothdb.GuildSettings
	submissions []*kothdb.Submission
	leaderboard map[string]*kothdb.LeaderboardEntry
	nextID      int64
	clock       time.Time

	GetSettingsFunc            func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*kothdb.GuildSettings, error)
	UpdateSettingsFunc         func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, update kothdb.SettingsUpdate) error
	TransitionStatusFunc       func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, from, to kothdomain.Status, update kothdb.SettingsUpdate) error
	InsertSubmissionFunc       func(ctx context.Context, db bun.IDB, sub *kothdb.Submission) error
	NextPendingSubmissionFunc  func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (*kothdb.Submission, error)
	RecordBattleResultFunc     func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, winnerID, loserID sharedtypes.DiscordID) error
	DeleteUnreviewedFunc       func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (int, error)
	CountSubmissionsFunc       func(ctx context.Context, db bun.IDB, filter kothdb.SubmissionFilter) (int, error)
	UpdateSubmissionStatusFunc func(ctx context.Context, db bun.IDB, id int64, status kothdomain.SubmissionStatus, reviewerID sharedtypes.DiscordID) error
}

func NewFakeKothRepo() *FakeKothRepo {
	return &FakeKothRepo{
		trace:       []string{},
		settings:    make(map[sharedtypes.GuildID]kothdb.GuildSettings),
		leaderboard: make(map[string]*kothdb.LeaderboardEntry),
		clock:       time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}
}

func (f *FakeKothRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// Seed stores settings as-is.
func (f *FakeKothRepo) Seed(settings kothdb.GuildSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[settings.GuildID] = settings
}

// --- Repository Interface Implementation ---

func (f *FakeKothRepo) GetSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*kothdb.GuildSettings, error) {
	f.record("GetSettings")
	if f.GetSettingsFunc != nil {
		return f.GetSettingsFunc(ctx, db, guildID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[guildID]
	if !ok {
		return nil, kothdb.ErrNotFound
	}
	return &s, nil
}

func (f *FakeKothRepo) UpdateSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, update kothdb.SettingsUpdate) error {
	f.record("UpdateSettings")
	if f.UpdateSettingsFunc != nil {
		return f.UpdateSettingsFunc(ctx, db, guildID, update)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stored(guildID)
	applyUpdate(&s, update)
	f.settings[guildID] = s
	return nil
}

func (f *FakeKothRepo) TransitionStatus(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, from, to kothdomain.Status, update kothdb.SettingsUpdate) error {
	f.record("TransitionStatus")
	if f.TransitionStatusFunc != nil {
		return f.TransitionStatusFunc(ctx, db, guildID, from, to, update)
	}
	if err := kothdomain.ValidateTransition(from, to); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stored(guildID)
	if s.Status() != from {
		return kothdb.ErrNoRowsAffected
	}
	applyUpdate(&s, update)
	s.SubmissionStatus = to
	f.settings[guildID] = s
	return nil
}

func (f *FakeKothRepo) stored(guildID sharedtypes.GuildID) kothdb.GuildSettings {
	s, ok := f.settings[guildID]
	if !ok {
		s = kothdb.GuildSettings{GuildID: guildID, SubmissionStatus: kothdomain.StatusClosed}
	}
	return s
}

func applyUpdate(s *kothdb.GuildSettings, update kothdb.SettingsUpdate) {
	if update.SubmissionChannelID != nil {
		s.SubmissionChannelID = *update.SubmissionChannelID
	}
	if update.KothSubmissionChannelID != nil {
		s.KothSubmissionChannelID = *update.KothSubmissionChannelID
	}
	if update.ReviewChannelID != nil {
		s.ReviewChannelID = *update.ReviewChannelID
	}
	if update.ReviewPanelMessageID != nil {
		s.ReviewPanelMessageID = *update.ReviewPanelMessageID
	}
	if update.KothWinnerRoleID != nil {
		s.KothWinnerRoleID = *update.KothWinnerRoleID
	}
	if update.AdminRoleIDs != nil {
		s.AdminRoleIDs = *update.AdminRoleIDs
	}
	if update.ModRoleIDs != nil {
		s.ModRoleIDs = *update.ModRoleIDs
	}
	if update.KothKingID != nil {
		s.KothKingID = *update.KothKingID
	}
	if update.KothKingSubmissionID != nil {
		s.KothKingSubmissionID = *update.KothKingSubmissionID
	}
	if update.KothTiebreakerUsers != nil {
		s.KothTiebreakerUsers = *update.KothTiebreakerUsers
	}
}

func (f *FakeKothRepo) InsertSubmission(ctx context.Context, db bun.IDB, sub *kothdb.Submission) error {
	f.record("InsertSubmission")
	if f.InsertSubmissionFunc != nil {
		return f.InsertSubmissionFunc(ctx, db, sub)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	sub.ID = f.nextID
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = f.clock
	}
	stored := *sub
	f.submissions = append(f.submissions, &stored)
	return nil
}

func (f *FakeKothRepo) GetSubmission(ctx context.Context, db bun.IDB, id int64) (*kothdb.Submission, error) {
	f.record("GetSubmission")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.submissions {
		if s.ID == id {
			out := *s
			return &out, nil
		}
	}
	return nil, kothdb.ErrNotFound
}

func (f *FakeKothRepo) NextPendingSubmission(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (*kothdb.Submission, error) {
	f.record("NextPendingSubmission")
	if f.NextPendingSubmissionFunc != nil {
		return f.NextPendingSubmissionFunc(ctx, db, guildID, subType)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var head *kothdb.Submission
	for _, s := range f.submissions {
		if s.GuildID != guildID || s.Type != subType || s.Status != kothdomain.SubmissionPending {
			continue
		}
		if head == nil || s.SubmittedAt.Before(head.SubmittedAt) ||
			(s.SubmittedAt.Equal(head.SubmittedAt) && s.ID < head.ID) {
			head = s
		}
	}
	if head == nil {
		return nil, kothdb.ErrNotFound
	}
	out := *head
	return &out, nil
}

func (f *FakeKothRepo) UpdateSubmissionStatus(ctx context.Context, db bun.IDB, id int64, status kothdomain.SubmissionStatus, reviewerID sharedtypes.DiscordID) error {
	f.record("UpdateSubmissionStatus")
	if f.UpdateSubmissionStatusFunc != nil {
		return f.UpdateSubmissionStatusFunc(ctx, db, id, status, reviewerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.submissions {
		if s.ID != id {
			continue
		}
		if !kothdomain.CanTransition(s.Status, status) {
			return kothdb.ErrNoRowsAffected
		}
		s.Status = status
		if reviewerID != "" {
			s.ReviewerID = reviewerID
		}
		return nil
	}
	return kothdb.ErrNoRowsAffected
}

func (f *FakeKothRepo) PrioritizeSubmission(ctx context.Context, db bun.IDB, id int64) error {
	f.record("PrioritizeSubmission")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.submissions {
		if s.ID == id && s.Status == kothdomain.SubmissionPending {
			s.SubmittedAt = kothdomain.PriorityTimestamp
			return nil
		}
	}
	return kothdb.ErrNoRowsAffected
}

func (f *FakeKothRepo) CountSubmissions(ctx context.Context, db bun.IDB, filter kothdb.SubmissionFilter) (int, error) {
	f.record("CountSubmissions")
	if f.CountSubmissionsFunc != nil {
		return f.CountSubmissionsFunc(ctx, db, filter)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.submissions {
		if (filter.GuildID == "" || s.GuildID == filter.GuildID) &&
			(filter.UserID == "" || s.UserID == filter.UserID) &&
			(filter.Type == "" || s.Type == filter.Type) &&
			(filter.Status == "" || s.Status == filter.Status) {
			n++
		}
	}
	return n, nil
}

func (f *FakeKothRepo) DeleteUnreviewedSubmissions(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, subType kothdomain.SubmissionType) (int, error) {
	f.record("DeleteUnreviewedSubmissions")
	if f.DeleteUnreviewedFunc != nil {
		return f.DeleteUnreviewedFunc(ctx, db, guildID, subType)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.submissions[:0]
	purged := 0
	for _, s := range f.submissions {
		if s.GuildID == guildID && s.Type == subType && s.Status != kothdomain.SubmissionReviewed {
			purged++
			continue
		}
		kept = append(kept, s)
	}
	f.submissions = kept
	return purged, nil
}

func leaderboardKey(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) string {
	return fmt.Sprintf("%s/%s", guildID, userID)
}

func (f *FakeKothRepo) entry(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) *kothdb.LeaderboardEntry {
	key := leaderboardKey(guildID, userID)
	e, ok := f.leaderboard[key]
	if !ok {
		e = &kothdb.LeaderboardEntry{GuildID: guildID, UserID: userID}
		f.leaderboard[key] = e
	}
	return e
}

func (f *FakeKothRepo) RecordBattleResult(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, winnerID, loserID sharedtypes.DiscordID) error {
	f.record("RecordBattleResult")
	if f.RecordBattleResultFunc != nil {
		return f.RecordBattleResultFunc(ctx, db, guildID, winnerID, loserID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.entry(guildID, winnerID)
	w.Points++
	w.Wins++
	w.Streak++
	l := f.entry(guildID, loserID)
	l.Losses++
	l.Streak = 0
	return nil
}

func (f *FakeKothRepo) GetLeaderboard(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, limit int) ([]kothdb.LeaderboardEntry, error) {
	f.record("GetLeaderboard")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []kothdb.LeaderboardEntry
	for _, e := range f.leaderboard {
		if e.GuildID == guildID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeKothRepo) GetLeaderboardEntry(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) (*kothdb.LeaderboardEntry, error) {
	f.record("GetLeaderboardEntry")
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.leaderboard[leaderboardKey(guildID, userID)]
	if !ok {
		return nil, kothdb.ErrNotFound
	}
	out := *e
	return &out, nil
}

// --- Accessors for assertions ---

func (f *FakeKothRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Settings returns a copy of the stored settings.
func (f *FakeKothRepo) Settings(guildID sharedtypes.GuildID) *kothdb.GuildSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stored(guildID)
	return &s
}

func (f *FakeKothRepo) Submissions() []kothdb.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]kothdb.Submission, 0, len(f.submissions))
	for _, s := range f.submissions {
		out = append(out, *s)
	}
	return out
}

func (f *FakeKothRepo) Entry(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) kothdb.LeaderboardEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.leaderboard[leaderboardKey(guildID, userID)]; ok {
		return *e
	}
	return kothdb.LeaderboardEntry{}
}

// Ensure the fake actually satisfies the interface
var _ kothdb.Repository = (*FakeKothRepo)(nil)

// ------------------------
// Fake Presenter
// ------------------------

type sentCard struct {
	ChannelID sharedtypes.ChannelID
	MessageID sharedtypes.MessageID
	Card      kothdomain.Card
}

type FakePresenter struct {
	mu     sync.Mutex
	trace  []string
	nextID int

	Sent      []sentCard
	Texts     []string
	Edits     map[sharedtypes.MessageID]kothdomain.Card
	Deleted   []sharedtypes.MessageID
	Reactions []string
	RoleAdds  []sharedtypes.DiscordID
	RoleWipes []sharedtypes.RoleID
	DMs       map[sharedtypes.DiscordID][]string

	SendCardFunc func(ctx context.Context, channelID sharedtypes.ChannelID, card kothdomain.Card) (sharedtypes.MessageID, error)
	EditCardFunc func(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, card kothdomain.Card) error
}

func NewFakePresenter() *FakePresenter {
	return &FakePresenter{
		trace: []string{},
		Edits: make(map[sharedtypes.MessageID]kothdomain.Card),
		DMs:   make(map[sharedtypes.DiscordID][]string),
	}
}

func (p *FakePresenter) record(step string) {
	p.trace = append(p.trace, step)
}

func (p *FakePresenter) newMessageID() sharedtypes.MessageID {
	p.nextID++
	return sharedtypes.MessageID(fmt.Sprintf("msg-%d", p.nextID))
}

func (p *FakePresenter) SendCard(ctx context.Context, channelID sharedtypes.ChannelID, card kothdomain.Card) (sharedtypes.MessageID, error) {
	if p.SendCardFunc != nil {
		return p.SendCardFunc(ctx, channelID, card)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("SendCard")
	id := p.newMessageID()
	p.Sent = append(p.Sent, sentCard{ChannelID: channelID, MessageID: id, Card: card})
	return id, nil
}

func (p *FakePresenter) SendText(ctx context.Context, channelID sharedtypes.ChannelID, content string) (sharedtypes.MessageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("SendText")
	p.Texts = append(p.Texts, content)
	return p.newMessageID(), nil
}

func (p *FakePresenter) EditCard(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, card kothdomain.Card) error {
	if p.EditCardFunc != nil {
		return p.EditCardFunc(ctx, channelID, messageID, card)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("EditCard")
	p.Edits[messageID] = card
	return nil
}

func (p *FakePresenter) DeleteMessage(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("DeleteMessage")
	p.Deleted = append(p.Deleted, messageID)
	return nil
}

func (p *FakePresenter) AddReaction(ctx context.Context, channelID sharedtypes.ChannelID, messageID sharedtypes.MessageID, emoji string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("AddReaction")
	p.Reactions = append(p.Reactions, emoji)
	return nil
}

func (p *FakePresenter) AddRole(ctx context.Context, guildID sharedtypes.GuildID, userID sharedtypes.DiscordID, roleID sharedtypes.RoleID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("AddRole")
	p.RoleAdds = append(p.RoleAdds, userID)
	return nil
}

func (p *FakePresenter) RemoveRoleFromAll(ctx context.Context, guildID sharedtypes.GuildID, roleID sharedtypes.RoleID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("RemoveRoleFromAll")
	p.RoleWipes = append(p.RoleWipes, roleID)
	return nil
}

func (p *FakePresenter) DirectMessage(ctx context.Context, userID sharedtypes.DiscordID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("DirectMessage")
	p.DMs[userID] = append(p.DMs[userID], content)
	return nil
}

// LastSent returns the most recent card posted, or false if none was.
func (p *FakePresenter) LastSent() (sentCard, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Sent) == 0 {
		return sentCard{}, false
	}
	return p.Sent[len(p.Sent)-1], true
}

// Panel returns the last render of the panel message.
func (p *FakePresenter) Panel(messageID sharedtypes.MessageID) kothdomain.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Edits[messageID]
}

func (p *FakePresenter) Trace() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.trace))
	copy(out, p.trace)
	return out
}

var _ Presenter = (*FakePresenter)(nil)

// ------------------------
// Fake Announcer
// ------------------------

type FakeAnnouncer struct {
	mu   sync.Mutex
	Sent []Announcement
}

func (a *FakeAnnouncer) Announce(ctx context.Context, ann Announcement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Sent = append(a.Sent, ann)
	return nil
}

func (a *FakeAnnouncer) Last() (Announcement, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Sent) == 0 {
		return Announcement{}, false
	}
	return a.Sent[len(a.Sent)-1], true
}

var _ Announcer = (*FakeAnnouncer)(nil)
