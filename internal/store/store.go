// Package store persists snapshots of the ledger, the distributor and the
// in-memory assets they hold, so the daemon can resume after a restart.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/escrow"
	"VoteEscrow/internal/feedist"
)

var ErrUnknownDriver = eris.New("unknown store driver")

// Snapshot is everything the daemon needs to resume.
type Snapshot struct {
	Ledger      escrow.State              `json:"ledger"`
	Distributor feedist.State             `json:"distributor"`
	Assets      map[string]asset.Holdings `json:"assets"`
	GenesisTime int64                     `json:"genesis_time"`
	Height      int64                     `json:"height"`
	SavedAt     time.Time                 `json:"saved_at"`
}

// Store loads and saves snapshots. Load returns nil and no error when nothing
// has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close() error
}

type Options struct {
	Driver    string
	Path      string
	RedisAddr string
	Password  string
	DB        int
	Namespace string
}

// Open returns the store selected by opts.Driver.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case "", "file":
		return NewFileStore(opts.Path), nil
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.Password,
			DB:       opts.DB,
		}, opts.Namespace), nil
	default:
		return nil, eris.Wrapf(ErrUnknownDriver, "driver %q", opts.Driver)
	}
}
