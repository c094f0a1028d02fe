package kothdomain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
)

// Side identifies which contender a vote went to.
type Side string

const (
	SideChampion   Side = "champion"
	SideChallenger Side = "challenger"
)

// ErrUnknownSide is returned for a vote that names neither contender.
var ErrUnknownSide = errors.New("unknown battle side")

// Contender is one track in a battle. Tiebreaker tracks have no submission id.
type Contender struct {
	UserID       sharedtypes.DiscordID
	SubmissionID int64
	TrackURL     string
}

// Battle is a presented head-to-head awaiting a moderator vote.
type Battle struct {
	ID         string
	GuildID    sharedtypes.GuildID
	Champion   Contender
	Challenger Contender
	Tiebreaker bool
	ChannelID  sharedtypes.ChannelID
	MessageID  sharedtypes.MessageID
}

// Outcome splits the contenders into winner and loser for a vote.
func (b Battle) Outcome(side Side) (winner, loser Contender, err error) {
	switch side {
	case SideChampion:
		return b.Champion, b.Challenger, nil
	case SideChallenger:
		return b.Challenger, b.Champion, nil
	default:
		return Contender{}, Contender{}, fmt.Errorf("%w: %q", ErrUnknownSide, side)
	}
}

// SideForAction maps a vote control to the side it votes for.
func SideForAction(tag ActionTag) (Side, bool) {
	switch tag {
	case ActionVoteChampion:
		return SideChampion, true
	case ActionVoteChallenger:
		return SideChallenger, true
	default:
		return "", false
	}
}

// BattleCard presents a battle with its two vote controls.
func BattleCard(b Battle) Card {
	if b.Tiebreaker {
		return Card{
			Title: "⚔️ FINAL BATTLE! ⚔️",
			Color: ColorRed,
			Fields: []Field{
				{Name: "Duelist 1", Value: fmt.Sprintf("%s\nTrack: %s", b.Champion.UserID.Mention(), b.Champion.TrackURL)},
				{Name: "Duelist 2", Value: fmt.Sprintf("%s\nTrack: %s", b.Challenger.UserID.Mention(), b.Challenger.TrackURL)},
			},
			Actions: []Action{
				{Tag: ActionVoteChampion, Label: "Vote for Duelist 1", Style: StylePrimary, Ref: b.ID},
				{Tag: ActionVoteChallenger, Label: "Vote for Duelist 2", Style: StylePrimary, Ref: b.ID},
			},
		}
	}
	return Card{
		Title: "⚔️ BATTLE TIME! ⚔️",
		Color: ColorGold,
		Fields: []Field{
			{Name: "👑 The King", Value: fmt.Sprintf("%s\nTrack: %s", b.Champion.UserID.Mention(), b.Champion.TrackURL)},
			{Name: "⚔️ The Challenger", Value: fmt.Sprintf("%s\nTrack: %s", b.Challenger.UserID.Mention(), b.Challenger.TrackURL)},
		},
		Actions: []Action{
			{Tag: ActionVoteChampion, Label: "👑 King Wins", Style: StyleSuccess, Ref: b.ID},
			{Tag: ActionVoteChallenger, Label: "⚔️ Challenger Wins", Style: StyleDanger, Ref: b.ID},
		},
	}
}

// NewKingCard announces the first champion of a session.
func NewKingCard(king sharedtypes.DiscordID) Card {
	return Card{
		Title:       "👑 New King of the Hill!",
		Description: fmt.Sprintf("**%s** is the new King!", king.Mention()),
		Color:       ColorSuccess,
	}
}

// RoundResultText announces the winner of a regular battle.
func RoundResultText(winner, loser Contender, side Side) string {
	if side == SideChampion {
		return fmt.Sprintf("👑 **%s** wins the round and remains King!", winner.UserID.Mention())
	}
	return fmt.Sprintf("👑 **%s** defeats %s and is the new King!", winner.UserID.Mention(), loser.UserID.Mention())
}

// TiebreakerText asks the tied pair for their final tracks.
func TiebreakerText(pair [2]sharedtypes.DiscordID) string {
	return fmt.Sprintf("**⚔️ TIEBREAKER! ⚔️**\n%s and %s, submit one final track!", pair[0].Mention(), pair[1].Mention())
}

// ResultsCard is the final standings report of a session.
func ResultsCard(standings []Standing, winner sharedtypes.DiscordID) Card {
	var b strings.Builder
	if winner != "" {
		fmt.Fprintf(&b, "Congratulations to the battle winner, %s!\n\n", winner.Mention())
	}
	b.WriteString("**Final Battle Leaderboard:**\n")
	if len(standings) == 0 {
		b.WriteString("No points were scored in this battle.")
	}
	for i, s := range standings {
		fmt.Fprintf(&b, "`%d.` %s: `%d` points (`%d` wins)\n", i+1, s.UserID.Mention(), s.Points, s.Wins)
	}
	return Card{
		Title:       "🏆 King of the Hill Results 🏆",
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       ColorGold,
	}
}

// LeaderboardRow is one all-time KOTH record.
type LeaderboardRow struct {
	UserID sharedtypes.DiscordID
	Points int
	Wins   int
	Losses int
	Streak int
}

// LeaderboardCard lists all-time KOTH records.
func LeaderboardCard(rows []LeaderboardRow) Card {
	if len(rows) == 0 {
		return Card{Title: "⚔️ KOTH Leaderboard (All-Time)", Description: "No KOTH statistics found yet.", Color: ColorInfo}
	}
	var b strings.Builder
	b.WriteString("All-time points for King of the Hill battles:\n\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "`%d.` **%s**: `%d` pts (**W/L:** `%d/%d`, **Streak:** `%d`)\n", i+1, r.UserID.Mention(), r.Points, r.Wins, r.Losses, r.Streak)
	}
	return Card{
		Title:       "⚔️ KOTH Leaderboard (All-Time)",
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       ColorInfo,
	}
}

// StatisticsCard reports the all-time regular review count.
func StatisticsCard(reviewed int) Card {
	return Card{
		Title:       "📊 Regular Submission Statistics (All-Time)",
		Description: fmt.Sprintf("A total of **%d** tracks have been permanently reviewed in this server.", reviewed),
		Color:       ColorInfo,
	}
}

// ReviewCard presents a regular submission for review.
func ReviewCard(submissionID int64, submitter sharedtypes.DiscordID, trackURL string) Card {
	return Card{
		Title:       "🎵 Track for Review",
		Description: fmt.Sprintf("Submitted by: %s\n%s", submitter.Mention(), trackURL),
		Color:       ColorInfo,
		Actions: []Action{
			{Tag: ActionMarkReviewed, Label: "✔️ Mark as Reviewed", Style: StyleSuccess, Ref: strconv.FormatInt(submissionID, 10)},
		},
	}
}
