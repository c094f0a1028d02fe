package kothservice

import "errors"

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrInvalidState         = errors.New("action not available in the current state")
	ErrBattleNotFound       = errors.New("battle not found")
)

// Rejection is a domain failure carrying the message for the invoking member.
// Rejections never change state.
type Rejection struct {
	Err     error
	Message string
}

func (r Rejection) Error() string { return r.Message }

func (r Rejection) Unwrap() error { return r.Err }

func reject(err error, message string) Rejection {
	return Rejection{Err: err, Message: message}
}

var (
	rejectAdminOnly     = reject(ErrPermissionDenied, "❌ Admins only.")
	rejectModOnly       = reject(ErrPermissionDenied, "❌ Mods/Admins only.")
	rejectVoteForbidden = reject(ErrPermissionDenied, "❌ You do not have permission to vote.")
	rejectNoReview      = reject(ErrConfigurationMissing, "❌ No review channel is configured for this server.")
	rejectNoKothChannel = reject(ErrConfigurationMissing, "❌ No King of the Hill submission channel is configured for this server.")
	rejectNoSubChannel  = reject(ErrConfigurationMissing, "❌ No submission channel is configured for this server.")
	rejectStale         = reject(ErrInvalidState, "⚠️ That action is not available right now. The panel may be out of date.")
	rejectBattleGone    = reject(ErrBattleNotFound, "⚠️ This battle is no longer active.")
)
