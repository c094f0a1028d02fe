package kothservice

import (
	"sync"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/google/uuid"
)

func newBattleID() string { return uuid.NewString() }

// battleRegistry tracks the presented battle of each guild and the
// announcements to clean up when the session ends. A battle card is deleted
// with its battle, not tracked.
type battleRegistry struct {
	mu       sync.Mutex
	active   map[sharedtypes.GuildID]kothdomain.Battle
	messages map[sharedtypes.GuildID][]MessageRef
}

func newBattleRegistry() *battleRegistry {
	return &battleRegistry{
		active:   make(map[sharedtypes.GuildID]kothdomain.Battle),
		messages: make(map[sharedtypes.GuildID][]MessageRef),
	}
}

// Put registers a battle. It returns false if the guild already has one.
func (r *battleRegistry) Put(b kothdomain.Battle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[b.GuildID]; ok {
		return false
	}
	r.active[b.GuildID] = b
	return true
}

// Get returns the guild's battle if its id matches.
func (r *battleRegistry) Get(guildID sharedtypes.GuildID, battleID string) (kothdomain.Battle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.active[guildID]
	if !ok || b.ID != battleID {
		return kothdomain.Battle{}, false
	}
	return b, true
}

// Active reports whether the guild has a battle awaiting a vote.
func (r *battleRegistry) Active(guildID sharedtypes.GuildID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[guildID]
	return ok
}

// Remove drops the guild's battle and returns it.
func (r *battleRegistry) Remove(guildID sharedtypes.GuildID) (kothdomain.Battle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.active[guildID]
	delete(r.active, guildID)
	return b, ok
}

// Track remembers a battle-related message for cleanup.
func (r *battleRegistry) Track(guildID sharedtypes.GuildID, ref MessageRef) {
	if ref.MessageID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[guildID] = append(r.messages[guildID], ref)
}

// Drain returns and forgets the tracked messages of a guild.
func (r *battleRegistry) Drain(guildID sharedtypes.GuildID) []MessageRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.messages[guildID]
	delete(r.messages, guildID)
	return ids
}
