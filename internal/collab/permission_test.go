package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertTransitions(t *testing.T) {
	tests := []struct {
		name     string
		current  Permission
		asserted Permission
		want     Permission
		send     bool
	}{
		{"ask", PermNone, PermIAskedThem, PermIAskedThem, true},
		{"accept request", PermTheyAskedMe, PermIAskedThem, PermGranted, true},
		{"grant from pose each other", PermPoseEachOther, PermGranted, PermIPoseThem, true},
		{"rescind they pose me", PermTheyPoseMe, PermGranted, PermGranted, true},
		{"grant keeps granted", PermGranted, PermGranted, PermGranted, true},
		{"let them pose me", PermGranted, PermTheyPoseMe, PermTheyPoseMe, true},
		{"both ways", PermIPoseThem, PermTheyPoseMe, PermPoseEachOther, true},
		{"end", PermPoseEachOther, PermEnded, PermEnded, true},
		{"deny", PermTheyAskedMe, PermDenied, PermDenied, true},
		{"party", PermGranted, PermPartyMode, PermPartyMode, true},
		{"cannot claim i pose them", PermGranted, PermIPoseThem, PermGranted, false},
		{"cannot claim pose each other", PermGranted, PermPoseEachOther, PermGranted, false},
		{"cannot claim they asked", PermNone, PermTheyAskedMe, PermNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, send := Assert(tt.current, tt.asserted)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.send, send)
		})
	}
}

func TestReceiveTransitions(t *testing.T) {
	tests := []struct {
		name     string
		current  Permission
		received Permission
		want     Permission
		reply    bool
	}{
		{"request arrives", PermNone, PermIAskedThem, PermTheyAskedMe, false},
		{"crossed requests", PermIAskedThem, PermIAskedThem, PermGranted, true},
		{"request while granted", PermGranted, PermIAskedThem, PermGranted, false},
		{"they let me pose them", PermGranted, PermTheyPoseMe, PermIPoseThem, false},
		{"they let me too", PermTheyPoseMe, PermTheyPoseMe, PermPoseEachOther, false},
		{"rescind from each other", PermPoseEachOther, PermGranted, PermTheyPoseMe, false},
		{"rescind i pose them", PermIPoseThem, PermGranted, PermGranted, false},
		{"stray grant", PermIAskedThem, PermGranted, PermIAskedThem, false},
		{"ended", PermPoseEachOther, PermEnded, PermEnded, false},
		{"denied", PermIAskedThem, PermDenied, PermDenied, false},
		{"none", PermGranted, PermNone, PermNone, false},
		{"party below granted", PermTheyAskedMe, PermPartyMode, PermPartyMode, false},
		{"party ignored when granted", PermGranted, PermPartyMode, PermGranted, false},
		{"cannot be told i pose them", PermGranted, PermIPoseThem, PermGranted, false},
		{"cannot be told they asked", PermNone, PermTheyAskedMe, PermNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reply := Receive(tt.current, tt.received)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reply, reply)
		})
	}
}

func TestPermissionNames(t *testing.T) {
	for p := PermNone; p < permCount; p++ {
		got, ok := ParsePermission(p.String())
		assert.True(t, ok)
		assert.Equal(t, p, got)
	}
	assert.False(t, Permission(42).Valid())
	assert.Equal(t, "invalid(42)", Permission(42).String())
	_, ok := ParsePermission("friends")
	assert.False(t, ok)

	assert.True(t, PermTheyPoseMe.CanPoseMe())
	assert.True(t, PermPoseEachOther.CanPoseMe())
	assert.False(t, PermIPoseThem.CanPoseMe())
	assert.False(t, PermGranted.CanPoseMe())
}
