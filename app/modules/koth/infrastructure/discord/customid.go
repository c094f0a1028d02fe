package kothdiscord

import (
	"errors"
	"strings"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
)

const customIDPrefix = "koth"

// ErrForeignCustomID is returned for components this bot did not render.
var ErrForeignCustomID = errors.New("custom id does not belong to koth")

// EncodeCustomID packs an action into a component custom id.
func EncodeCustomID(a kothdomain.Action) string {
	return customIDPrefix + ":" + string(a.Tag) + ":" + a.Ref
}

// DecodeCustomID unpacks a component custom id.
func DecodeCustomID(customID string) (kothdomain.ActionTag, string, error) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != customIDPrefix || parts[1] == "" {
		return "", "", ErrForeignCustomID
	}
	return kothdomain.ActionTag(parts[1]), parts[2], nil
}
