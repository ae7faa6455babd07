// Package node hosts one ledger and one distributor over in-memory assets,
// serializes every call into a single order and persists snapshots.
package node

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/escrow"
	"VoteEscrow/internal/feedist"
	"VoteEscrow/internal/recorder"
	"VoteEscrow/internal/store"
)

const (
	baseAssetKey = "base"
	feeAssetKey  = "fee"
)

type Config struct {
	Env         chain.Env
	GenesisTime int64

	LedgerAddress common.Address
	Name          string
	Symbol        string
	Version       string
	BaseAsset     common.Address
	BaseDecimals  int

	DistributorAddress common.Address
	FeeAsset           common.Address
	FeeDecimals        int
	StartTime          int64
	EmergencyReturn    common.Address
	CanCheckpointToken bool

	// Operator signs privileged calls made by the daemon itself.
	Operator common.Address
	Admins   []common.Address
	Agents   []common.Address

	Store    store.Store
	Recorder recorder.Recorder
}

// Node handles ledger and distributor calls with concurrency safety.
type Node struct {
	host        chain.Host
	env         chain.Env
	genesisTime int64
	operator    common.Address

	ledger *escrow.Ledger
	dist   *feedist.Distributor
	base   *asset.Token
	fee    *asset.Token

	store store.Store
	sink  *recorder.Sink
}

// New builds the ledger and distributor and, when snap is not nil, resumes
// from it.
func New(cfg Config, snap *store.Snapshot) (*Node, error) {
	if cfg.Store == nil {
		return nil, eris.New("node: store is required")
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	acl := chain.NewACL()
	for _, a := range cfg.Admins {
		for _, p := range chain.Permissions {
			acl.Grant(p, a)
		}
	}
	if cfg.Operator != chain.ZeroAddress {
		acl.Grant(chain.PermissionCheckpointToken, cfg.Operator)
	}
	agents := chain.AgentList{}
	for _, a := range cfg.Agents {
		agents[a] = true
	}

	n := &Node{
		env:         cfg.Env,
		genesisTime: cfg.GenesisTime,
		operator:    cfg.Operator,
		base:        asset.NewToken(cfg.BaseAsset, cfg.BaseDecimals),
		fee:         asset.NewToken(cfg.FeeAsset, cfg.FeeDecimals),
		store:       cfg.Store,
		sink:        recorder.NewSink(rec),
	}

	ledger, err := escrow.New(escrow.Config{
		Address: cfg.LedgerAddress,
		Name:    cfg.Name,
		Symbol:  cfg.Symbol,
		Version: cfg.Version,
		Token:   n.base,
		Env:     cfg.Env,
		Auth:    acl,
		Agents:  agents,
		Events:  n.sink,
	})
	if err != nil {
		return nil, eris.Wrap(err, "create ledger")
	}
	n.ledger = ledger

	startTime := cfg.StartTime
	if startTime == 0 {
		startTime = cfg.GenesisTime
	}
	dist, err := feedist.New(feedist.Config{
		Address:            cfg.DistributorAddress,
		Escrow:             ledger,
		Token:              n.fee,
		StartTime:          startTime,
		EmergencyReturn:    cfg.EmergencyReturn,
		CanCheckpointToken: cfg.CanCheckpointToken,
		Env:                cfg.Env,
		Auth:               acl,
		Events:             n.sink,
	})
	if err != nil {
		return nil, eris.Wrap(err, "create distributor")
	}
	n.dist = dist

	if snap != nil {
		if err := n.restore(snap); err != nil {
			return nil, err
		}
		log.Info().
			Int64("epoch", ledger.Epoch()).
			Time("saved_at", snap.SavedAt).
			Msg("resumed from snapshot")
	}
	return n, nil
}

func (n *Node) restore(snap *store.Snapshot) error {
	if err := n.ledger.Restore(snap.Ledger); err != nil {
		return eris.Wrap(err, "restore ledger")
	}
	if err := n.dist.Restore(snap.Distributor); err != nil {
		return eris.Wrap(err, "restore distributor")
	}
	if h, ok := snap.Assets[baseAssetKey]; ok {
		n.base.Restore(h)
	}
	if h, ok := snap.Assets[feeAssetKey]; ok {
		n.fee.Restore(h)
	}
	return nil
}

func (n *Node) Ledger() *escrow.Ledger            { return n.ledger }
func (n *Node) Distributor() *feedist.Distributor { return n.dist }
func (n *Node) BaseAsset() *asset.Token           { return n.base }
func (n *Node) FeeAsset() *asset.Token            { return n.fee }
func (n *Node) Env() chain.Env                    { return n.env }
func (n *Node) Operator() common.Address          { return n.operator }

// Exec runs one state-changing call in the host's total order. Events the
// call emits are recorded under a fresh call id.
func (n *Node) Exec(name string, fn func() error) error {
	return n.host.Exec(func() error {
		id := n.sink.Begin()
		if err := fn(); err != nil {
			log.Debug().Err(err).Str("call", name).Str("call_id", id).Msg("call failed")
			return eris.Wrap(err, name)
		}
		log.Debug().Str("call", name).Str("call_id", id).Msg("call committed")
		return nil
	})
}

// Read runs fn in the host's total order without starting a call.
func (n *Node) Read(fn func()) {
	_ = n.host.Exec(func() error {
		fn()
		return nil
	})
}

// Save persists a snapshot of the current state.
func (n *Node) Save(ctx context.Context) error {
	var snap store.Snapshot
	n.Read(func() {
		snap = store.Snapshot{
			Ledger:      n.ledger.Export(),
			Distributor: n.dist.Export(),
			Assets: map[string]asset.Holdings{
				baseAssetKey: n.base.Export(),
				feeAssetKey:  n.fee.Export(),
			},
			GenesisTime: n.genesisTime,
			Height:      n.env.Height(),
		}
	})
	return eris.Wrap(n.store.Save(ctx, &snap), "save snapshot")
}
