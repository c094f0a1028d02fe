package kothdomain

import (
	"strings"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// Level is the privilege an action needs.
type Level int

const (
	LevelModerator Level = iota
	LevelAdmin
)

// Actor is the member invoking an action.
type Actor struct {
	UserID        sharedtypes.DiscordID
	RoleIDs       []sharedtypes.RoleID
	Administrator bool
}

// Authorize reports whether actor holds level. Admins are platform administrators
// or members of an admin role; moderators are admins or members of a mod role.
func Authorize(actor Actor, adminRoles, modRoles []sharedtypes.RoleID, level Level) bool {
	if actor.Administrator || hasAnyRole(actor.RoleIDs, adminRoles) {
		return true
	}
	if level == LevelModerator {
		return hasAnyRole(actor.RoleIDs, modRoles)
	}
	return false
}

func hasAnyRole(have, want []sharedtypes.RoleID) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// ParseRoleIDs decodes a comma separated role id list.
func ParseRoleIDs(raw string) []sharedtypes.RoleID {
	var out []sharedtypes.RoleID
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, sharedtypes.RoleID(p))
		}
	}
	return out
}
