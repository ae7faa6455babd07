// Package feedist splits fee income into weekly buckets and pays each account
// its share of every week in proportion to its vote-escrow power that week.
package feedist

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/journal"
	"VoteEscrow/internal/model"
)

const (
	// TokenCheckpointDeadline is how stale the last token checkpoint must be
	// before an unprivileged caller may trigger another.
	TokenCheckpointDeadline = model.Day
	// MaxReceivers bounds ClaimMany.
	MaxReceivers = 20

	tokenCheckpointWeeks  = 20
	supplyCheckpointWeeks = 20
	claimIterations       = 50
)

// Escrow is the read-only view of the vote-escrow ledger the distributor
// needs. It never writes ledger state.
type Escrow interface {
	UserPointEpoch(addr common.Address) int64
	UserPointHistory(addr common.Address, epoch int64) model.Point
	FindUserEpochForTime(addr common.Address, t, maxEpoch int64) int64
	TotalSupplyAt(t int64) math.Int
}

// Config wires a Distributor to its collaborators.
type Config struct {
	// Address is the distributor's own holder address on the fee asset.
	Address common.Address
	Escrow  Escrow
	Token   asset.Asset
	// StartTime is rounded down to a week; nothing before it is distributed.
	StartTime          int64
	EmergencyReturn    common.Address
	CanCheckpointToken bool
	Env                chain.Env
	Auth               chain.Authorizer
	Events             model.EventSink
}

// State is everything the distributor persists.
type State struct {
	StartTime          int64                    `json:"start_time"`
	TimeCursor         int64                    `json:"time_cursor"`
	LastTokenTime      int64                    `json:"last_token_time"`
	TokenLastBalance   math.Int                 `json:"token_last_balance"`
	TokensPerWeek      map[int64]math.Int       `json:"tokens_per_week"`
	VeSupply           map[int64]math.Int       `json:"ve_supply"`
	TimeCursorOf       map[common.Address]int64 `json:"time_cursor_of"`
	UserEpochOf        map[common.Address]int64 `json:"user_epoch_of"`
	CanCheckpointToken bool                     `json:"can_checkpoint_token"`
	IsKilled           bool                     `json:"is_killed"`
}

// Distributor is the fee distribution state machine. Like the ledger it
// relies on the host to serialize calls.
type Distributor struct {
	addr            common.Address
	escrow          Escrow
	token           asset.Asset
	emergencyReturn common.Address

	env    chain.Env
	auth   chain.Authorizer
	events model.EventSink

	guard   chain.Guard
	journal journal.Journal
	st      State
}

// New creates a distributor whose cursors all start at StartTime.
func New(cfg Config) (*Distributor, error) {
	if cfg.Escrow == nil {
		return nil, eris.New("feedist: escrow is required")
	}
	if cfg.Token == nil {
		return nil, eris.New("feedist: fee asset is required")
	}
	if cfg.Env == nil {
		return nil, eris.New("feedist: environment is required")
	}
	events := cfg.Events
	if events == nil {
		events = model.DiscardSink{}
	}
	start := model.FloorWeek(cfg.StartTime)
	return &Distributor{
		addr:            cfg.Address,
		escrow:          cfg.Escrow,
		token:           cfg.Token,
		emergencyReturn: cfg.EmergencyReturn,
		env:             cfg.Env,
		auth:            cfg.Auth,
		events:          events,
		st: State{
			StartTime:          start,
			TimeCursor:         start,
			LastTokenTime:      start,
			TokenLastBalance:   math.ZeroInt(),
			TokensPerWeek:      make(map[int64]math.Int),
			VeSupply:           make(map[int64]math.Int),
			TimeCursorOf:       make(map[common.Address]int64),
			UserEpochOf:        make(map[common.Address]int64),
			CanCheckpointToken: cfg.CanCheckpointToken,
		},
	}, nil
}

func (d *Distributor) Address() common.Address         { return d.addr }
func (d *Distributor) Token() asset.Asset              { return d.token }
func (d *Distributor) EmergencyReturn() common.Address { return d.emergencyReturn }
func (d *Distributor) StartTime() int64                { return d.st.StartTime }
func (d *Distributor) TimeCursor() int64               { return d.st.TimeCursor }
func (d *Distributor) LastTokenTime() int64            { return d.st.LastTokenTime }
func (d *Distributor) TokenLastBalance() math.Int      { return d.st.TokenLastBalance }
func (d *Distributor) CanCheckpointToken() bool        { return d.st.CanCheckpointToken }
func (d *Distributor) IsKilled() bool                  { return d.st.IsKilled }

// TokensPerWeek is the fee amount attributed to the week starting at week.
func (d *Distributor) TokensPerWeek(week int64) math.Int {
	return lookup(d.st.TokensPerWeek, week)
}

// VeSupply is the total voting power snapshotted for the week starting at week.
func (d *Distributor) VeSupply(week int64) math.Int {
	return lookup(d.st.VeSupply, week)
}

// TimeCursorOf is the first week addr has not yet claimed, zero before the
// first claim.
func (d *Distributor) TimeCursorOf(addr common.Address) int64 {
	return d.st.TimeCursorOf[addr]
}

// UserEpochOf is the last ledger epoch of addr consumed by claims.
func (d *Distributor) UserEpochOf(addr common.Address) int64 {
	return d.st.UserEpochOf[addr]
}

// VeForAt is addr's voting power at t, read from the ledger history.
func (d *Distributor) VeForAt(addr common.Address, t int64) math.Int {
	maxEpoch := d.escrow.UserPointEpoch(addr)
	epoch := d.escrow.FindUserEpochForTime(addr, t, maxEpoch)
	return d.escrow.UserPointHistory(addr, epoch).BiasAt(t)
}

// Export returns a copy of the distributor state.
func (d *Distributor) Export() State {
	out := d.st
	out.TokensPerWeek = copyMap(d.st.TokensPerWeek)
	out.VeSupply = copyMap(d.st.VeSupply)
	out.TimeCursorOf = copyMap(d.st.TimeCursorOf)
	out.UserEpochOf = copyMap(d.st.UserEpochOf)
	return out
}

// Restore replaces the distributor state with a previously exported one.
func (d *Distributor) Restore(st State) error {
	if st.TokenLastBalance.IsNil() {
		st.TokenLastBalance = math.ZeroInt()
	}
	if st.TokensPerWeek == nil {
		st.TokensPerWeek = make(map[int64]math.Int)
	}
	if st.VeSupply == nil {
		st.VeSupply = make(map[int64]math.Int)
	}
	if st.TimeCursorOf == nil {
		st.TimeCursorOf = make(map[common.Address]int64)
	}
	if st.UserEpochOf == nil {
		st.UserEpochOf = make(map[common.Address]int64)
	}
	if st.StartTime%model.Week != 0 {
		return eris.Errorf("feedist: restored start time %d is not week aligned", st.StartTime)
	}
	d.st = st
	return nil
}

// nonReentrant runs a value-moving call atomically and rejects re-entry.
func (d *Distributor) nonReentrant(fn func() error) error {
	if err := d.guard.Enter(); err != nil {
		return err
	}
	defer d.guard.Exit()
	return d.journal.Run(fn)
}

// payout sends amount of the fee asset to to. If the enclosing call later
// fails, the transfer is sent back.
func (d *Distributor) payout(to common.Address, amount math.Int) error {
	if err := asset.SafeTransfer(d.token, d.addr, to, amount); err != nil {
		return err
	}
	d.journal.Record(func() {
		if err := asset.SafeTransfer(d.token, to, d.addr, amount); err != nil {
			log.Error().Err(err).
				Str("account", to.Hex()).
				Str("amount", amount.String()).
				Msg("failed to reverse payout of a reverted call")
		}
	})
	return nil
}

func (d *Distributor) emit(ev model.Event) {
	d.journal.OnCommit(func() { d.events.Emit(ev) })
}

func lookup[K comparable](m map[K]math.Int, k K) math.Int {
	if v, ok := m[k]; ok {
		return v
	}
	return math.ZeroInt()
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
