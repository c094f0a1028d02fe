package kothdomain

// Embed colors shared by every card.
const (
	ColorInfo    = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorError   = 0xED4245
	ColorGold    = 0xF1C40F
	ColorRed     = 0xE74C3C
)

// ActionTag names an interactive control. Handlers are looked up by tag.
type ActionTag string

const (
	ActionStart            ActionTag = "start"
	ActionStop             ActionTag = "stop"
	ActionAdvanceQueue     ActionTag = "advance"
	ActionViewStats        ActionTag = "stats"
	ActionViewKothStats    ActionTag = "koth_stats"
	ActionSwitchMode       ActionTag = "switch_mode"
	ActionCancelTiebreaker ActionTag = "cancel_tiebreaker"
	ActionVoteChampion     ActionTag = "vote_champion"
	ActionVoteChallenger   ActionTag = "vote_challenger"
	ActionMarkReviewed     ActionTag = "mark_reviewed"
)

// ActionStyle hints how prominent a control should look.
type ActionStyle int

const (
	StyleSecondary ActionStyle = iota
	StylePrimary
	StyleSuccess
	StyleDanger
)

// Action is one control on a card. Ref carries the context the control was
// rendered for (panel status, battle id, submission id).
type Action struct {
	Tag   ActionTag
	Label string
	Style ActionStyle
	Ref   string
}

// Field is a titled block of card text.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Card is the platform-neutral view of a message. Presenters turn it into
// whatever the chat platform renders.
type Card struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Actions     []Action
}

// Tags lists the action tags of the card in order.
func (c Card) Tags() []ActionTag {
	tags := make([]ActionTag, 0, len(c.Actions))
	for _, a := range c.Actions {
		tags = append(tags, a.Tag)
	}
	return tags
}
