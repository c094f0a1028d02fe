package kothdomain

import (
	"testing"

	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/stretchr/testify/assert"
)

func TestTiebreakersSingleSubmissionPerUser(t *testing.T) {
	tb := NewTiebreakers()
	g := sharedtypes.GuildID("g")

	assert.True(t, tb.Submit(g, TiebreakerEntry{UserID: "u1", TrackURL: "first"}))
	assert.False(t, tb.Submit(g, TiebreakerEntry{UserID: "u1", TrackURL: "second"}))

	entries := tb.Entries(g)
	assert.Equal(t, []TiebreakerEntry{{UserID: "u1", TrackURL: "first"}}, entries)
	assert.True(t, tb.Has(g, "u1"))
	assert.False(t, tb.Has(g, "u2"))

	assert.True(t, tb.Submit(g, TiebreakerEntry{UserID: "u2", TrackURL: "other"}))
	assert.Len(t, tb.Entries(g), 2)

	tb.Clear(g)
	assert.Empty(t, tb.Entries(g))
}

func TestTiebreakersRemove(t *testing.T) {
	tb := NewTiebreakers()
	g := sharedtypes.GuildID("g")
	tb.Submit(g, TiebreakerEntry{UserID: "u1", TrackURL: "first"})
	tb.Submit(g, TiebreakerEntry{UserID: "u2", TrackURL: "second"})

	tb.Remove(g, "u2")
	assert.False(t, tb.Has(g, "u2"))
	assert.Equal(t, []TiebreakerEntry{{UserID: "u1", TrackURL: "first"}}, tb.Entries(g))

	tb.Remove(g, "nobody")
	assert.Len(t, tb.Entries(g), 1)

	assert.True(t, tb.Submit(g, TiebreakerEntry{UserID: "u2", TrackURL: "retry"}))
	assert.Equal(t, "retry", tb.Entries(g)[1].TrackURL)
}

func TestUserPairRoundTrip(t *testing.T) {
	pair := [2]sharedtypes.DiscordID{"111", "222"}
	raw := FormatUserPair(pair)
	assert.Equal(t, "111,222", raw)
	assert.Equal(t, []sharedtypes.DiscordID{"111", "222"}, ParseUserPair(raw))

	assert.Nil(t, ParseUserPair(""))
	assert.Nil(t, ParseUserPair("111"))
	assert.Nil(t, ParseUserPair("111,"))
	assert.Nil(t, ParseUserPair("1,2,3"))
}
