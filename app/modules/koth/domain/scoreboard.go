package kothdomain

import (
	"sort"
	"sync"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// Standing is one user's tally for the current session.
type Standing struct {
	UserID      sharedtypes.DiscordID
	Points      int
	Wins        int
	Submissions int
	seq         int
}

// Scoreboard holds the in-memory session tallies of every guild.
// It is never persisted; a restart only loses the running session.
type Scoreboard struct {
	mu     sync.Mutex
	guilds map[sharedtypes.GuildID]*guildBoard
}

type guildBoard struct {
	entries map[sharedtypes.DiscordID]*Standing
	nextSeq int
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{guilds: make(map[sharedtypes.GuildID]*guildBoard)}
}

func (s *Scoreboard) entry(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) *Standing {
	board, ok := s.guilds[guildID]
	if !ok {
		board = &guildBoard{entries: make(map[sharedtypes.DiscordID]*Standing)}
		s.guilds[guildID] = board
	}
	e, ok := board.entries[userID]
	if !ok {
		e = &Standing{UserID: userID, seq: board.nextSeq}
		board.nextSeq++
		board.entries[userID] = e
	}
	return e
}

// RecordSubmission counts an accepted KOTH attachment.
func (s *Scoreboard) RecordSubmission(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(guildID, userID).Submissions++
}

// RecordWin credits a vote winner with a point and a win.
func (s *Scoreboard) RecordWin(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(guildID, userID)
	e.Points++
	e.Wins++
}

// Reset drops every entry of the guild.
func (s *Scoreboard) Reset(guildID sharedtypes.GuildID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guilds, guildID)
}

// Standings returns a copy of the guild's entries ordered by points, then by
// first appearance in the session.
func (s *Scoreboard) Standings(guildID sharedtypes.GuildID) []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]Standing, 0, len(board.entries))
	for _, e := range board.entries {
		out = append(out, *e)
	}
	SortStandings(out)
	return out
}

// SortStandings orders by points descending with first-seen order as tie-break.
func SortStandings(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].seq < standings[j].seq
	})
}
