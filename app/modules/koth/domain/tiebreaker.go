package kothdomain

import (
	"strings"
	"sync"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// TiebreakerEntry is the final track a tied user submitted.
type TiebreakerEntry struct {
	UserID   sharedtypes.DiscordID
	TrackURL string
}

// Tiebreakers holds the pending final-round tracks of every guild in memory.
type Tiebreakers struct {
	mu     sync.Mutex
	guilds map[sharedtypes.GuildID][]TiebreakerEntry
}

func NewTiebreakers() *Tiebreakers {
	return &Tiebreakers{guilds: make(map[sharedtypes.GuildID][]TiebreakerEntry)}
}

// Submit records a user's final track. It returns false when the user already
// submitted; the first track is kept.
func (t *Tiebreakers) Submit(guildID sharedtypes.GuildID, entry TiebreakerEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.guilds[guildID] {
		if e.UserID == entry.UserID {
			return false
		}
	}
	t.guilds[guildID] = append(t.guilds[guildID], entry)
	return true
}

// Has reports whether the user already submitted a final track.
func (t *Tiebreakers) Has(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.guilds[guildID] {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// Entries returns the recorded tracks in submission order.
func (t *Tiebreakers) Entries(guildID sharedtypes.GuildID) []TiebreakerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TiebreakerEntry(nil), t.guilds[guildID]...)
}

// Remove drops a user's final track so they can submit again.
func (t *Tiebreakers) Remove(guildID sharedtypes.GuildID, userID sharedtypes.DiscordID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.guilds[guildID]
	for i, e := range entries {
		if e.UserID == userID {
			t.guilds[guildID] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

func (t *Tiebreakers) Clear(guildID sharedtypes.GuildID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.guilds, guildID)
}

// ParseUserPair decodes the stored "u1,u2" pair. Anything other than two ids yields nil.
func ParseUserPair(raw string) []sharedtypes.DiscordID {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil
	}
	out := make([]sharedtypes.DiscordID, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil
		}
		out = append(out, sharedtypes.DiscordID(p))
	}
	return out
}

// FormatUserPair encodes a tied pair for storage.
func FormatUserPair(pair [2]sharedtypes.DiscordID) string {
	return string(pair[0]) + "," + string(pair[1])
}

// ContainsUser reports whether id is one of users.
func ContainsUser(users []sharedtypes.DiscordID, id sharedtypes.DiscordID) bool {
	for _, u := range users {
		if u == id {
			return true
		}
	}
	return false
}
