package escrow

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
)

var (
	ledgerAddr = common.HexToAddress("0xe5c0")
	baseAddr   = common.HexToAddress("0xba5e")
	adminAddr  = common.HexToAddress("0xad")
	alice      = common.HexToAddress("0xa11ce")
	bob        = common.HexToAddress("0xb0b")
	carol      = common.HexToAddress("0xca401")
)

type recordingSink struct {
	events []model.Event
}

func (s *recordingSink) Emit(ev model.Event) { s.events = append(s.events, ev) }

type fixture struct {
	env    *chain.ManualEnv
	token  *asset.Token
	acl    *chain.ACL
	sink   *recordingSink
	ledger *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		env:   chain.NewManualEnv(model.FloorWeek(1_700_000_000)+model.Day, 1_000),
		token: asset.NewToken(baseAddr, 18),
		acl:   chain.NewACL(),
		sink:  &recordingSink{},
	}
	f.acl.Grant(chain.PermissionRecoverLedger, adminAddr)
	f.acl.Grant(chain.PermissionSetAgentChecker, adminAddr)

	l, err := New(Config{
		Address: ledgerAddr,
		Name:    "Vote-escrowed TKN",
		Symbol:  "veTKN",
		Version: "1",
		Token:   f.token,
		Env:     f.env,
		Auth:    f.acl,
		Events:  f.sink,
	})
	require.NoError(t, err)
	f.ledger = l
	return f
}

// units returns n whole tokens in base units.
func units(n int64) math.Int {
	return math.NewIntWithDecimal(n, 18)
}

func (f *fixture) fund(addr common.Address, amount math.Int) {
	f.token.Mint(addr, amount)
	f.token.Approve(addr, ledgerAddr, amount)
}

// advance moves time forward dt seconds at one block per 12 seconds.
func (f *fixture) advance(dt int64) {
	f.env.Advance(dt, dt/12)
}

func (f *fixture) lock(t *testing.T, who common.Address, amount math.Int, unlock int64) {
	t.Helper()
	f.fund(who, amount)
	require.NoError(t, f.ledger.CreateLock(chain.From(who), amount, unlock))
}

func assertClose(t *testing.T, want, got, tol math.Int, msgAndArgs ...interface{}) {
	t.Helper()
	diff := want.Sub(got).Abs()
	assert.Truef(t, diff.LTE(tol), "want %s got %s (diff %s > tol %s) %v", want, got, diff, tol, msgAndArgs)
}

func assertSamePoints(t *testing.T, want, got []model.Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Truef(t, w.Bias.Equal(g.Bias) && w.Slope.Equal(g.Slope) && w.Ts == g.Ts && w.Blk == g.Blk,
			"point %d: want %+v got %+v", i, w, g)
	}
}

func TestNew_DecimalsBoundary(t *testing.T) {
	env := chain.NewManualEnv(1_000_000, 1)
	tests := []struct {
		decimals int
		wantErr  bool
	}{
		{18, false},
		{254, false},
		{255, true},
		{300, true},
	}
	for _, tt := range tests {
		_, err := New(Config{Token: asset.NewToken(baseAddr, tt.decimals), Env: env})
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrDecimalsOverflow, "decimals %d", tt.decimals)
		} else {
			assert.NoError(t, err, "decimals %d", tt.decimals)
		}
	}
}

func TestNew_GenesisPoint(t *testing.T) {
	f := newFixture(t)
	g := f.ledger.PointHistory(0)
	assert.Equal(t, f.env.Now(), g.Ts)
	assert.Equal(t, f.env.Height(), g.Blk)
	assert.True(t, g.Bias.IsZero())
	assert.Equal(t, int64(0), f.ledger.Epoch())
}

func TestExportRestore_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.lock(t, alice, units(10), f.env.Now()+52*model.Week)
	f.advance(3 * model.Week)
	require.NoError(t, f.ledger.Checkpoint())

	st := f.ledger.Export()

	g := newFixture(t)
	require.NoError(t, g.ledger.Restore(st))
	assert.Equal(t, f.ledger.Epoch(), g.ledger.Epoch())
	assert.Equal(t, f.ledger.UserPointEpoch(alice), g.ledger.UserPointEpoch(alice))
	assert.True(t, f.ledger.Supply().Equal(g.ledger.Supply()))
	assert.Equal(t, f.ledger.LockedEnd(alice), g.ledger.LockedEnd(alice))
}
