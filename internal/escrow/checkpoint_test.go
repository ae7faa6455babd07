package escrow

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
)

func TestCheckpoint_SameBlockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, units(100), f.env.Now()+30*model.Week)
	f.advance(2*model.Week + 5*model.Day)

	require.NoError(t, f.ledger.Checkpoint())
	first := f.ledger.Export().PointHistory

	require.NoError(t, f.ledger.Checkpoint())
	assertSamePoints(t, first, f.ledger.Export().PointHistory)
}

func TestCheckpoint_WeeklyPoints(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, units(100), f.env.Now()+30*model.Week)
	epoch := f.ledger.Epoch()

	f.advance(3 * model.Week)
	require.NoError(t, f.ledger.Checkpoint())
	// Three week boundaries were crossed, plus the point at now.
	assert.Equal(t, epoch+4, f.ledger.Epoch())

	last := f.ledger.PointHistory(f.ledger.Epoch())
	assert.Equal(t, f.env.Now(), last.Ts)
	assert.Equal(t, f.env.Height(), last.Blk)
	for e := epoch + 1; e < f.ledger.Epoch(); e++ {
		p := f.ledger.PointHistory(e)
		assert.Zero(t, p.Ts%model.Week, "epoch %d is not on a week boundary", e)
		assert.Greater(t, p.Blk, f.ledger.PointHistory(e-1).Blk)
	}
}

func TestCheckpoint_WeekBound(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, units(100), f.env.Now()+10*model.Week)
	epoch := f.ledger.Epoch()
	prevTs := f.ledger.PointHistory(epoch).Ts

	f.advance(300 * model.Week)
	require.NoError(t, f.ledger.Checkpoint())
	assert.Equal(t, epoch+MaxCheckpointWeeks, f.ledger.Epoch())
	reached := f.ledger.PointHistory(f.ledger.Epoch()).Ts
	assert.Equal(t, model.FloorWeek(prevTs)+MaxCheckpointWeeks*model.Week, reached)
	assert.Less(t, reached, f.env.Now())

	require.NoError(t, f.ledger.Checkpoint())
	assert.Equal(t, f.env.Now(), f.ledger.PointHistory(f.ledger.Epoch()).Ts)
	assert.True(t, f.ledger.TotalSupply().IsZero())
}

func TestCheckpoint_SlopeChangesScheduled(t *testing.T) {
	f := newFixture(t)
	now := f.env.Now()
	f.lock(t, alice, units(100), now+10*model.Week)
	end := f.ledger.LockedEnd(alice)
	slope := f.ledger.GetLastUserSlope(alice)
	assert.True(t, f.ledger.SlopeChange(end).Equal(slope.Neg()))

	// Extending moves the scheduled drop to the new end.
	require.NoError(t, f.ledger.IncreaseUnlockTime(chain.From(alice), end+2*model.Week))
	assert.True(t, f.ledger.SlopeChange(end).IsZero())
	assert.True(t, f.ledger.SlopeChange(end+2*model.Week).Equal(slope.Neg()))
}

func TestSupplyMatchesSumOfBalances(t *testing.T) {
	f := newFixture(t)
	start := f.env.Now()
	f.lock(t, alice, units(1000), start+52*model.Week)
	f.advance(3*model.Day + 17)
	f.lock(t, bob, units(400), start+20*model.Week)
	f.advance(2 * model.Week)
	f.lock(t, carol, units(77), start+8*model.Week)
	f.advance(model.Week + 301)
	f.fund(alice, math.NewInt(1))
	require.NoError(t, f.ledger.IncreaseAmount(chain.From(alice), math.NewInt(1)))
	f.advance(40 * model.Week)
	require.NoError(t, f.ledger.Checkpoint())

	for _, at := range []int64{
		start,
		start + 5*model.Day,
		start + 2*model.Week + model.Day,
		start + 8*model.Week,
		start + 8*model.Week + 1,
		start + 19*model.Week,
		start + 30*model.Week,
		f.env.Now(),
	} {
		sum := f.ledger.BalanceOfAt(alice, at).
			Add(f.ledger.BalanceOfAt(bob, at)).
			Add(f.ledger.BalanceOfAt(carol, at))
		got := f.ledger.TotalSupplyAt(at)
		assert.True(t, got.Equal(sum), "at %d: supply %s, sum of balances %s", at, got, sum)
	}
}
