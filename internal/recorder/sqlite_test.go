package recorder

import (
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoteEscrow/internal/model"
)

var alice = common.HexToAddress("0xa11ce")

func openRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func countRows(t *testing.T, r *SQLiteRecorder, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestSink_GroupsEventsByCall(t *testing.T) {
	r := openRecorder(t)
	s := NewSink(r)

	first := s.Begin()
	s.Emit(model.DepositEvent{Provider: alice, Value: math.NewInt(10), LockTime: 100, Type: model.CreateLockType, Ts: 1})
	s.Emit(model.SupplyEvent{PrevSupply: math.ZeroInt(), Supply: math.NewInt(10)})

	second := s.Begin()
	assert.NotEqual(t, first, second)
	s.Emit(model.WithdrawEvent{Provider: alice, Value: math.NewInt(10), Ts: 200})
	s.Emit(model.SupplyEvent{PrevSupply: math.NewInt(10), Supply: math.ZeroInt()})

	assert.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM deposits WHERE call_id = ?`, first))
	assert.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM supply_changes WHERE call_id = ?`, first))
	assert.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM withdrawals WHERE call_id = ?`, second))
	assert.Equal(t, 2, countRows(t, r, `SELECT COUNT(*) FROM supply_changes`))

	var typ string
	require.NoError(t, r.db.QueryRow(`SELECT deposit_type FROM deposits`).Scan(&typ))
	assert.Equal(t, "CREATE_LOCK", typ)
}

func TestSink_DistributorEvents(t *testing.T) {
	r := openRecorder(t)
	s := NewSink(r)
	huge, ok := math.NewIntFromString("123456789012345678901234567890")
	require.True(t, ok)

	s.Begin()
	s.Emit(model.CheckpointTokenEvent{Time: 5, Tokens: huge})
	s.Emit(model.ClaimedEvent{Recipient: alice, Amount: huge, ClaimEpoch: 1, MaxEpoch: 1})
	s.Emit(model.ClaimedEvent{Recipient: alice, Amount: math.NewInt(1), ClaimEpoch: 1, MaxEpoch: 2})
	s.Emit(model.ToggleCheckpointTokenEvent{Enabled: true})
	s.Emit(model.KilledEvent{To: alice, Amount: math.NewInt(3)})

	assert.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM token_checkpoints`))
	assert.Equal(t, 2, countRows(t, r, `SELECT COUNT(*) FROM claims`))
	assert.Equal(t, 2, countRows(t, r, `SELECT COUNT(*) FROM governance_events`))

	total, err := r.ClaimedTotal(alice)
	require.NoError(t, err)
	assert.True(t, total.Equal(huge.AddRaw(1)), "total %s", total)

	none, err := r.ClaimedTotal(common.HexToAddress("0xb0b"))
	require.NoError(t, err)
	assert.True(t, none.IsZero())

	var name string
	require.NoError(t, r.db.QueryRow(`SELECT event FROM governance_events ORDER BY id DESC LIMIT 1`).Scan(&name))
	assert.Equal(t, "Killed", name)
}

func TestNoopRecorder(t *testing.T) {
	s := NewSink(NewNoopRecorder())
	s.Emit(model.ClaimedEvent{Recipient: alice, Amount: math.NewInt(1)})
	assert.NoError(t, NewNoopRecorder().Close())
}
