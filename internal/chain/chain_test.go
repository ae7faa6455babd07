package chain

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = common.HexToAddress("0xad")
	other = common.HexToAddress("0xb0b")
)

func TestManualEnv_NeverGoesBackwards(t *testing.T) {
	e := NewManualEnv(1000, 10)
	e.Advance(60, 5)
	assert.Equal(t, int64(1060), e.Now())
	assert.Equal(t, int64(15), e.Height())

	e.Advance(-100, -100)
	e.Set(500, 1)
	assert.Equal(t, int64(1060), e.Now())
	assert.Equal(t, int64(15), e.Height())

	e.Set(2000, 40)
	assert.Equal(t, int64(2000), e.Now())
	assert.Equal(t, int64(40), e.Height())
}

func TestSystemEnv_DerivesHeightFromInterval(t *testing.T) {
	genesis := time.Unix(1_700_000_000, 0)
	e := NewSystemEnv(genesis, 100, 12*time.Second)

	tests := []struct {
		name   string
		clock  time.Time
		height int64
	}{
		{"at genesis", genesis, 100},
		{"before genesis", genesis.Add(-time.Hour), 100},
		{"partial block", genesis.Add(11 * time.Second), 100},
		{"one hour", genesis.Add(time.Hour), 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.clock = func() time.Time { return tt.clock }
			assert.Equal(t, tt.height, e.Height())
			assert.Equal(t, tt.clock.Unix(), e.Now())
		})
	}

	e.BlockInterval = 0
	e.clock = func() time.Time { return genesis.Add(time.Hour) }
	assert.Equal(t, int64(100), e.Height())
}

func TestRequire(t *testing.T) {
	acl := NewACL()
	acl.Grant(PermissionKill, admin)

	assert.NoError(t, Require(acl, PermissionKill, admin))
	assert.ErrorIs(t, Require(acl, PermissionKill, other), ErrUnauthorized)
	assert.ErrorIs(t, Require(acl, PermissionRecoverFees, admin), ErrUnauthorized)
	assert.ErrorIs(t, Require(nil, PermissionKill, admin), ErrUnauthorized)

	acl.Revoke(PermissionKill, admin)
	assert.ErrorIs(t, Require(acl, PermissionKill, admin), ErrUnauthorized)
}

func TestAgentList(t *testing.T) {
	agents := AgentList{admin: true}
	assert.True(t, agents.Check(admin))
	assert.False(t, agents.Check(other))
}

func TestGuard_RejectsReentry(t *testing.T) {
	var g Guard
	require.NoError(t, g.Enter())
	assert.ErrorIs(t, g.Enter(), ErrReentrant)
	g.Exit()
	assert.NoError(t, g.Enter())
}

func TestHost_SerializesCalls(t *testing.T) {
	var h Host
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Exec(func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
