package sharedtypes

// Discord snowflakes are carried as strings throughout the service.
type (
	GuildID   string
	DiscordID string
	ChannelID string
	MessageID string
	RoleID    string
)

func (g GuildID) String() string   { return string(g) }
func (d DiscordID) String() string { return string(d) }
func (c ChannelID) String() string { return string(c) }
func (m MessageID) String() string { return string(m) }
func (r RoleID) String() string    { return string(r) }

// Mention renders the user as a platform mention.
func (d DiscordID) Mention() string {
	if d == "" {
		return "nobody"
	}
	return "<@" + string(d) + ">"
}
