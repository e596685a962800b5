package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBanPermanent(t *testing.T) {
	assert.True(t, (&Ban{}).Permanent())

	ends := time.Now()
	assert.False(t, (&Ban{EndsOn: &ends}).Permanent())
}

func TestBanRemainingFloorsAtZero(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ends := now.Add(time.Hour)
	assert.Equal(t, time.Hour, (&Ban{EndsOn: &ends}).Remaining(now))

	past := now.Add(-time.Hour)
	assert.Equal(t, time.Duration(0), (&Ban{EndsOn: &past}).Remaining(now))

	assert.Equal(t, time.Duration(0), (&Ban{}).Remaining(now))
}

func TestBacklogKey(t *testing.T) {
	assert.Equal(t, "7656119_vip_add", BacklogKey("7656119", "vip", GroupAdd))
	assert.Equal(t, "7656119_vip_remove", BacklogKey("7656119", "vip", GroupRemove))
}

func TestEventNameDirect(t *testing.T) {
	assert.True(t, EventDirect.Direct())
	assert.True(t, EventDisable.Direct())
	assert.False(t, EventConnect.Direct())
	assert.False(t, EventDisconnect.Direct())
	assert.False(t, EventDeath.Direct())
}

func TestRewardKindSupported(t *testing.T) {
	assert.True(t, RewardCommand.Supported())
	assert.False(t, RewardKind("SHUTDOWN").Supported())
}
