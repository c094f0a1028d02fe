package kothdomain

import (
	"sync"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// LockRegistry hands out one mutex per guild. Mutexes are created on first use
// and kept for the life of the process.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[sharedtypes.GuildID]*sync.Mutex
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[sharedtypes.GuildID]*sync.Mutex)}
}

// Lock blocks until the guild's mutex is held and returns its unlock func.
func (r *LockRegistry) Lock(guildID sharedtypes.GuildID) func() {
	r.mu.Lock()
	l, ok := r.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[guildID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Len reports how many guild locks exist.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
