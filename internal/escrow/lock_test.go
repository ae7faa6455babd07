package escrow

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
)

func TestCreateLock_MaxTimeScenario(t *testing.T) {
	f := newFixture(t)
	start := f.env.Now()
	f.lock(t, alice, units(1000), start+model.MaxTime)
	end := f.ledger.LockedEnd(alice)
	require.Equal(t, model.FloorWeek(start+model.MaxTime), end)

	// Rounding the end down to a week costs at most one week of power.
	assertClose(t, units(1000), f.ledger.BalanceOf(alice), units(7))

	f.advance(model.MaxTime / 2)
	assertClose(t, units(500), f.ledger.BalanceOf(alice), units(7))

	err := f.ledger.Withdraw(chain.From(alice))
	require.ErrorIs(t, err, ErrLockNotExpired)

	f.env.Set(end, f.env.Height()+1)
	assert.True(t, f.ledger.BalanceOf(alice).IsZero())

	require.NoError(t, f.ledger.Withdraw(chain.From(alice)))
	bal, _ := f.token.BalanceOf(alice)
	assert.True(t, bal.Equal(units(1000)), "got %s", bal)
	assert.True(t, f.ledger.Supply().IsZero())
	assert.Equal(t, int64(0), f.ledger.LockedEnd(alice))
}

func TestCreateLock_InitialBias(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	amount := units(250)

	f.lock(t, alice, amount, now+10*model.Week)
	f.lock(t, bob, amount, now+20*model.Week)

	for _, who := range []struct {
		name string
		end  int64
		got  math.Int
	}{
		{"alice", f.ledger.LockedEnd(alice), f.ledger.BalanceOf(alice)},
		{"bob", f.ledger.LockedEnd(bob), f.ledger.BalanceOf(bob)},
	} {
		want := amount.QuoRaw(model.MaxTime).MulRaw(who.end - now)
		assert.True(t, want.Equal(who.got), "%s: want %s got %s", who.name, want, who.got)
	}
	assert.True(t, f.ledger.BalanceOf(bob).GT(f.ledger.BalanceOf(alice)))
}

func TestCreateLock_Validation(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.fund(alice, units(100))

	tests := []struct {
		name   string
		value  math.Int
		unlock int64
		want   error
	}{
		{"zero value", math.ZeroInt(), now + model.Week*4, ErrZeroValue},
		{"negative value", math.NewInt(-1), now + model.Week*4, ErrZeroValue},
		{"unlock in past", units(1), now - model.Day, ErrUnlockInPast},
		{"unlock rounds to now's week", units(1), now + model.Day, ErrUnlockInPast},
		{"unlock beyond max", units(1), now + model.MaxTime + 2*model.Week, ErrUnlockTooFar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ledger.CreateLock(chain.From(alice), tt.value, tt.unlock)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	require.NoError(t, f.ledger.CreateLock(chain.From(alice), units(1), now+4*model.Week))
	err := f.ledger.CreateLock(chain.From(alice), units(1), now+4*model.Week)
	assert.ErrorIs(t, err, ErrWithdrawOldFirst)

	// An expired but unwithdrawn lock still blocks a new one.
	f.advance(5 * model.Week)
	err = f.ledger.CreateLock(chain.From(alice), units(1), f.env.Now()+4*model.Week)
	assert.ErrorIs(t, err, ErrWithdrawOldFirst)
}

func TestIncreaseAmount(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.lock(t, alice, units(100), now+10*model.Week)
	end := f.ledger.LockedEnd(alice)
	before := f.ledger.BalanceOf(alice)

	f.fund(alice, units(100))
	require.NoError(t, f.ledger.IncreaseAmount(chain.From(alice), units(100)))
	assert.Equal(t, end, f.ledger.LockedEnd(alice))
	assert.True(t, f.ledger.Locked(alice).Amount.Equal(units(200)))
	assert.True(t, f.ledger.BalanceOf(alice).GT(before))

	assert.ErrorIs(t, f.ledger.IncreaseAmount(chain.From(alice), math.ZeroInt()), ErrZeroValue)
	assert.ErrorIs(t, f.ledger.IncreaseAmount(chain.From(bob), units(1)), ErrNoLock)

	f.env.Set(end, f.env.Height()+10)
	assert.ErrorIs(t, f.ledger.IncreaseAmount(chain.From(alice), units(1)), ErrLockExpired)
}

func TestIncreaseUnlockTime(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.lock(t, alice, units(100), now+10*model.Week)
	f.lock(t, bob, units(100), now+10*model.Week)
	end := f.ledger.LockedEnd(alice)

	tests := []struct {
		name   string
		unlock int64
		want   error
	}{
		{"same end", end, ErrUnlockNotIncreased},
		{"same week", end + model.Day, ErrUnlockNotIncreased},
		{"earlier end", end - model.Week, ErrUnlockNotIncreased},
		{"beyond max", now + model.MaxTime + 2*model.Week, ErrUnlockTooFar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.ledger.IncreaseUnlockTime(chain.From(alice), tt.unlock), tt.want)
		})
	}

	require.NoError(t, f.ledger.IncreaseUnlockTime(chain.From(alice), end+5*model.Week))
	assert.Equal(t, end+5*model.Week, f.ledger.LockedEnd(alice))
	assert.True(t, f.ledger.BalanceOf(alice).GT(f.ledger.BalanceOf(bob)))

	f.advance(3 * model.Week)
	assert.True(t, f.ledger.BalanceOf(alice).GT(f.ledger.BalanceOf(bob)))

	f.env.Set(end, f.env.Height()+1)
	assert.ErrorIs(t, f.ledger.IncreaseUnlockTime(chain.From(bob), end+model.Week), ErrLockExpired)
	assert.ErrorIs(t, f.ledger.IncreaseUnlockTime(chain.From(carol), end+model.Week), ErrLockExpired)
}

func TestDepositFor(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.lock(t, alice, units(100), now+10*model.Week)

	f.fund(bob, units(50))
	require.NoError(t, f.ledger.DepositFor(chain.From(bob), alice, units(50)))
	assert.True(t, f.ledger.Locked(alice).Amount.Equal(units(150)))
	bobBal, _ := f.token.BalanceOf(bob)
	assert.True(t, bobBal.IsZero(), "deposit is paid by the caller")

	assert.ErrorIs(t, f.ledger.DepositFor(chain.From(bob), carol, units(1)), ErrNoLock)
	assert.ErrorIs(t, f.ledger.DepositFor(chain.From(bob), alice, math.ZeroInt()), ErrZeroValue)
}

func TestAgentGating(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	agent := carol
	viaAgent := chain.Call{Sender: agent, Origin: alice}
	f.fund(agent, units(100))

	err := f.ledger.CreateLock(viaAgent, units(10), now+4*model.Week)
	require.ErrorIs(t, err, ErrNotAllowed)

	// deposit-for deliberately skips the vetting.
	f.lock(t, bob, units(10), now+4*model.Week)
	require.NoError(t, f.ledger.DepositFor(viaAgent, bob, units(10)))

	require.ErrorIs(t, f.ledger.SetAgentChecker(chain.From(alice), chain.AgentList{agent: true}), chain.ErrUnauthorized)
	require.NoError(t, f.ledger.SetAgentChecker(chain.From(adminAddr), chain.AgentList{agent: true}))

	require.NoError(t, f.ledger.CreateLock(viaAgent, units(10), now+4*model.Week))
	f.fund(agent, units(1))
	require.NoError(t, f.ledger.IncreaseAmount(viaAgent, units(1)))
	require.NoError(t, f.ledger.IncreaseUnlockTime(viaAgent, now+8*model.Week))
}

func TestWithdraw_Errors(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ledger.Withdraw(chain.From(alice)), ErrNoLock)
}

func TestFailedTransferLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.token.Mint(alice, units(10)) // no approval

	epoch := f.ledger.Epoch()
	err := f.ledger.CreateLock(chain.From(alice), units(10), now+4*model.Week)
	require.ErrorIs(t, err, asset.ErrTransferFailed)

	assert.Equal(t, epoch, f.ledger.Epoch())
	assert.Equal(t, int64(0), f.ledger.UserPointEpoch(alice))
	assert.Equal(t, int64(0), f.ledger.LockedEnd(alice))
	assert.True(t, f.ledger.Supply().IsZero())
	assert.True(t, f.ledger.SlopeChange(model.FloorWeek(now+4*model.Week)).IsZero())
	assert.Empty(t, f.sink.events)
}

func TestReentryIsRejected(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.fund(alice, units(10))

	var inner error
	f.token.Hook = func() {
		inner = f.ledger.Withdraw(chain.From(alice))
	}
	require.NoError(t, f.ledger.CreateLock(chain.From(alice), units(10), now+4*model.Week))
	assert.ErrorIs(t, inner, chain.ErrReentrant)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.lock(t, alice, units(10), now+4*model.Week)

	require.Len(t, f.sink.events, 2)
	dep, ok := f.sink.events[0].(model.DepositEvent)
	require.True(t, ok)
	assert.Equal(t, alice, dep.Provider)
	assert.Equal(t, model.CreateLockType, dep.Type)
	assert.True(t, dep.Value.Equal(units(10)))
	sup, ok := f.sink.events[1].(model.SupplyEvent)
	require.True(t, ok)
	assert.True(t, sup.PrevSupply.IsZero())
	assert.True(t, sup.Supply.Equal(units(10)))
}
