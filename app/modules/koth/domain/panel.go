package kothdomain

import (
	"fmt"
	"strings"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

const panelLeaderboardSize = 5

// PanelState is everything the panel shows. Standings are only read while a
// KOTH session is open.
type PanelState struct {
	Status          Status
	QueueSize       int
	King            sharedtypes.DiscordID
	TiebreakerUsers []sharedtypes.DiscordID
	Standings       []Standing
}

// PanelActions returns the controls available in a status.
func PanelActions(status Status) []Action {
	ref := string(status)
	switch status {
	case StatusOpen:
		return []Action{
			{Tag: ActionAdvanceQueue, Label: "▶️ Play the Queue", Style: StylePrimary, Ref: ref},
			{Tag: ActionStop, Label: "⏹️ Stop Submissions", Style: StyleDanger, Ref: ref},
			{Tag: ActionViewStats, Label: "📊 Statistics", Style: StyleSecondary, Ref: ref},
		}
	case StatusKothClosed:
		return []Action{
			{Tag: ActionStart, Label: "Start KOTH Battle", Style: StyleSuccess, Ref: ref},
			{Tag: ActionViewKothStats, Label: "📊 KOTH Stats", Style: StyleSecondary, Ref: ref},
			{Tag: ActionSwitchMode, Label: "Switch to Regular Mode", Style: StyleSecondary, Ref: ref},
		}
	case StatusKothOpen:
		return []Action{
			{Tag: ActionAdvanceQueue, Label: "▶️ Play KOTH Queue", Style: StylePrimary, Ref: ref},
			{Tag: ActionStop, Label: "⏹️ Stop KOTH Battle", Style: StyleDanger, Ref: ref},
			{Tag: ActionViewKothStats, Label: "📊 KOTH Stats", Style: StyleSecondary, Ref: ref},
		}
	case StatusKothTiebreaker:
		return []Action{
			{Tag: ActionCancelTiebreaker, Label: "🛑 Cancel Tiebreaker", Style: StyleDanger, Ref: ref},
		}
	default:
		return []Action{
			{Tag: ActionStart, Label: "Start Submissions", Style: StyleSuccess, Ref: ref},
			{Tag: ActionViewStats, Label: "📊 Statistics", Style: StyleSecondary, Ref: ref},
			{Tag: ActionSwitchMode, Label: "Switch to KOTH Mode", Style: StyleSecondary, Ref: ref},
		}
	}
}

// RenderPanel builds the control panel for a state. It has no side effects.
func RenderPanel(state PanelState) Card {
	if !state.Status.IsKoth() {
		open := state.Status == StatusOpen
		color := ColorError
		word := "CLOSED"
		if open {
			color = ColorSuccess
			word = "OPEN"
		}
		return Card{
			Title:       "🎵 Music Submission Control Panel",
			Description: fmt.Sprintf("Submissions are currently **%s**.\n\n**Queue:** `%d` tracks pending.", word, state.QueueSize),
			Color:       color,
			Actions:     PanelActions(state.Status),
		}
	}

	var b strings.Builder
	b.WriteString("**Mode:** King of the Hill\n")

	switch state.Status {
	case StatusKothTiebreaker:
		b.WriteString("**Submissions:** `TIEBREAKER DUEL`")
		if len(state.TiebreakerUsers) > 0 {
			mentions := make([]string, 0, len(state.TiebreakerUsers))
			for _, u := range state.TiebreakerUsers {
				mentions = append(mentions, u.Mention())
			}
			fmt.Fprintf(&b, "\n\nWaiting for final submissions from %s.", strings.Join(mentions, ", "))
		}
	case StatusKothOpen:
		fmt.Fprintf(&b, "**Submissions:** `OPEN`\n**Queue:** `%d` challengers pending.", state.QueueSize)
	default:
		fmt.Fprintf(&b, "**Submissions:** `CLOSED`\n**Queue:** `%d` challengers pending.", state.QueueSize)
	}

	if state.King != "" {
		fmt.Fprintf(&b, "\n\n**Current King:** %s", state.King.Mention())
	}

	if state.Status == StatusKothOpen && len(state.Standings) > 0 {
		b.WriteString("\n\n**Leaderboard (Current Battle):**\n")
		for i, s := range state.Standings {
			if i == panelLeaderboardSize {
				break
			}
			fmt.Fprintf(&b, "`%d.` %s: `%d` pts (`%d` wins)\n", i+1, s.UserID.Mention(), s.Points, s.Wins)
		}
	}

	return Card{
		Title:       "⚔️ King of the Hill Panel",
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       ColorInfo,
		Actions:     PanelActions(state.Status),
	}
}
