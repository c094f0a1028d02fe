package kothdomain

import sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"

// StopDecision is what happens when an admin stops a KOTH session.
type StopDecision struct {
	Tiebreaker bool
	Tied       [2]sharedtypes.DiscordID
	Winner     sharedtypes.DiscordID
}

// DecideStop applies the tie rule to sorted standings. A tie needs at least two
// entries, a positive top score and equal scores for the top two. Without a tie
// the top scorer wins, or the reigning king when nobody scored at all.
func DecideStop(standings []Standing, king sharedtypes.DiscordID) StopDecision {
	if len(standings) >= 2 && standings[0].Points > 0 && standings[0].Points == standings[1].Points {
		return StopDecision{
			Tiebreaker: true,
			Tied:       [2]sharedtypes.DiscordID{standings[0].UserID, standings[1].UserID},
		}
	}
	if len(standings) == 0 {
		return StopDecision{Winner: king}
	}
	return StopDecision{Winner: standings[0].UserID}
}
