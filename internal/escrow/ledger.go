// Package escrow implements the vote-escrow ledger: locked balances and a
// linearly decaying voting-power curve kept as global and per-account
// checkpoint histories.
package escrow

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/journal"
	"VoteEscrow/internal/model"
)

const (
	// MaxDecimals is compared literally: decimals >= MaxDecimals is rejected.
	MaxDecimals = 255
	// MaxCheckpointWeeks bounds the weekly stepping of the global curve per call.
	MaxCheckpointWeeks = 255
)

// blockSlopeMultiplier keeps precision when extrapolating heights between
// checkpoints.
var blockSlopeMultiplier = math.NewInt(1_000_000_000_000_000_000)

// Config wires a Ledger to its collaborators.
type Config struct {
	// Address is the ledger's own holder address on the base asset.
	Address common.Address
	Name    string
	Symbol  string
	Version string
	Token   asset.Asset
	Env     chain.Env
	Auth    chain.Authorizer
	Agents  chain.AgentChecker
	Events  model.EventSink
}

// State is everything the ledger persists.
type State struct {
	Supply           math.Int                               `json:"supply"`
	Locked           map[common.Address]model.LockedBalance `json:"locked"`
	PointHistory     []model.Point                          `json:"point_history"`
	UserPointHistory map[common.Address][]model.Point       `json:"user_point_history"`
	SlopeChanges     map[int64]math.Int                     `json:"slope_changes"`
}

// Ledger is the vote-escrow state machine. Calls must be serialized by the
// host; the ledger itself only rejects re-entry.
type Ledger struct {
	addr     common.Address
	name     string
	symbol   string
	version  string
	decimals int

	token  asset.Asset
	env    chain.Env
	auth   chain.Authorizer
	agents chain.AgentChecker
	events model.EventSink

	guard   chain.Guard
	journal journal.Journal
	st      State
}

// New creates a ledger whose genesis point is the current time and height.
func New(cfg Config) (*Ledger, error) {
	if cfg.Token == nil {
		return nil, eris.New("escrow: base asset is required")
	}
	if cfg.Env == nil {
		return nil, eris.New("escrow: environment is required")
	}
	decimals := cfg.Token.Decimals()
	if decimals >= MaxDecimals {
		return nil, eris.Wrapf(ErrDecimalsOverflow, "decimals %d", decimals)
	}
	events := cfg.Events
	if events == nil {
		events = model.DiscardSink{}
	}

	genesis := model.EmptyPoint()
	genesis.Ts = cfg.Env.Now()
	genesis.Blk = cfg.Env.Height()

	return &Ledger{
		addr:     cfg.Address,
		name:     cfg.Name,
		symbol:   cfg.Symbol,
		version:  cfg.Version,
		decimals: decimals,
		token:    cfg.Token,
		env:      cfg.Env,
		auth:     cfg.Auth,
		agents:   cfg.Agents,
		events:   events,
		st: State{
			Supply:           math.ZeroInt(),
			Locked:           make(map[common.Address]model.LockedBalance),
			PointHistory:     []model.Point{genesis},
			UserPointHistory: make(map[common.Address][]model.Point),
			SlopeChanges:     make(map[int64]math.Int),
		},
	}, nil
}

func (l *Ledger) Address() common.Address { return l.addr }
func (l *Ledger) Name() string            { return l.name }
func (l *Ledger) Symbol() string          { return l.symbol }
func (l *Ledger) Version() string         { return l.version }
func (l *Ledger) Decimals() int           { return l.decimals }
func (l *Ledger) Token() asset.Asset      { return l.token }

// Export returns a copy of the ledger state.
func (l *Ledger) Export() State {
	out := State{
		Supply:           l.st.Supply,
		Locked:           make(map[common.Address]model.LockedBalance, len(l.st.Locked)),
		PointHistory:     append([]model.Point(nil), l.st.PointHistory...),
		UserPointHistory: make(map[common.Address][]model.Point, len(l.st.UserPointHistory)),
		SlopeChanges:     make(map[int64]math.Int, len(l.st.SlopeChanges)),
	}
	for k, v := range l.st.Locked {
		out.Locked[k] = v
	}
	for k, v := range l.st.UserPointHistory {
		out.UserPointHistory[k] = append([]model.Point(nil), v...)
	}
	for k, v := range l.st.SlopeChanges {
		out.SlopeChanges[k] = v
	}
	return out
}

// Restore replaces the ledger state with a previously exported one.
func (l *Ledger) Restore(st State) error {
	if len(st.PointHistory) == 0 {
		return eris.New("escrow: restored state has no genesis point")
	}
	if st.Supply.IsNil() {
		st.Supply = math.ZeroInt()
	}
	if st.Locked == nil {
		st.Locked = make(map[common.Address]model.LockedBalance)
	}
	if st.UserPointHistory == nil {
		st.UserPointHistory = make(map[common.Address][]model.Point)
	}
	if st.SlopeChanges == nil {
		st.SlopeChanges = make(map[int64]math.Int)
	}
	l.st = st
	return nil
}

// nonReentrant runs a value-moving call atomically and rejects re-entry.
func (l *Ledger) nonReentrant(fn func() error) error {
	if err := l.guard.Enter(); err != nil {
		return err
	}
	defer l.guard.Exit()
	return l.journal.Run(fn)
}

func (l *Ledger) emit(ev model.Event) {
	l.journal.OnCommit(func() { l.events.Emit(ev) })
}

func (l *Ledger) locked(addr common.Address) model.LockedBalance {
	if lb, ok := l.st.Locked[addr]; ok {
		return lb
	}
	return model.EmptyLock()
}

func (l *Ledger) slopeChange(t int64) math.Int {
	if v, ok := l.st.SlopeChanges[t]; ok {
		return v
	}
	return math.ZeroInt()
}

func (l *Ledger) setLocked(addr common.Address, lb model.LockedBalance) {
	prev, existed := l.st.Locked[addr]
	l.st.Locked[addr] = lb
	l.journal.Record(func() {
		if existed {
			l.st.Locked[addr] = prev
		} else {
			delete(l.st.Locked, addr)
		}
	})
}

func (l *Ledger) setSupply(v math.Int) {
	prev := l.st.Supply
	l.st.Supply = v
	l.journal.Record(func() { l.st.Supply = prev })
}

func (l *Ledger) setSlopeChange(t int64, v math.Int) {
	prev, existed := l.st.SlopeChanges[t]
	l.st.SlopeChanges[t] = v
	l.journal.Record(func() {
		if existed {
			l.st.SlopeChanges[t] = prev
		} else {
			delete(l.st.SlopeChanges, t)
		}
	})
}

func (l *Ledger) appendPoint(p model.Point) {
	n := len(l.st.PointHistory)
	l.st.PointHistory = append(l.st.PointHistory, p)
	l.journal.Record(func() { l.st.PointHistory = l.st.PointHistory[:n] })
}

func (l *Ledger) replacePoint(epoch int64, p model.Point) {
	prev := l.st.PointHistory[epoch]
	l.st.PointHistory[epoch] = p
	l.journal.Record(func() { l.st.PointHistory[epoch] = prev })
}

func (l *Ledger) appendUserPoint(addr common.Address, p model.Point) {
	hist, existed := l.st.UserPointHistory[addr]
	n := len(hist)
	if n == 0 {
		hist = []model.Point{model.EmptyPoint()}
	}
	l.st.UserPointHistory[addr] = append(hist, p)
	l.journal.Record(func() {
		if !existed {
			delete(l.st.UserPointHistory, addr)
			return
		}
		l.st.UserPointHistory[addr] = l.st.UserPointHistory[addr][:n]
	})
}
