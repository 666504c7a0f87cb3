package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseActionType(t *testing.T) {
	tests := []struct {
		raw  string
		want ActionType
		ok   bool
	}{
		{"follow", ActionFollow, true},
		{"Seguir", ActionFollow, true},
		{"like", ActionLike, true},
		{"CURTIR", ActionLike, true},
		{"follow_like", ActionFollowLike, true},
		{"seguir_curtir", ActionFollowLike, true},
		{"dancar", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseActionType(tc.raw)
		assert.Equal(t, tc.ok, ok, "input %q", tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
	}
}

func TestExpand(t *testing.T) {
	assert.Equal(t, []ActionType{ActionFollow, ActionLike}, ActionFollowLike.Expand())
	assert.Equal(t, []ActionType{ActionFollow}, ActionFollow.Expand())
	assert.Equal(t, []ActionType{ActionLike}, ActionLike.Expand())
}

func TestPayoutValue(t *testing.T) {
	follow := Order{ActionType: ActionFollow}
	assert.InDelta(t, 0.006, follow.PayoutValue(), 1e-9)

	like := Order{ActionType: ActionLike}
	assert.InDelta(t, 0.001, like.PayoutValue(), 1e-9)

	explicit := 0.0125
	custom := Order{ActionType: ActionFollow, Value: &explicit}
	assert.InDelta(t, 0.013, custom.PayoutValue(), 1e-9)

	zero := 0.0
	defaulted := Order{ActionType: ActionLike, Value: &zero}
	assert.InDelta(t, 0.001, defaulted.PayoutValue(), 1e-9)
}

func TestParseNetwork(t *testing.T) {
	got, ok := ParseNetwork(" Instagram ")
	assert.True(t, ok)
	assert.Equal(t, NetworkInstagram, got)

	got, ok = ParseNetwork("TIKTOK")
	assert.True(t, ok)
	assert.Equal(t, NetworkTikTok, got)

	_, ok = ParseNetwork("orkut")
	assert.False(t, ok)
}
