package chain

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the "no account" sentinel.
var ZeroAddress = common.Address{}

// Env exposes the host's logical time (unix seconds) and block height. Both are
// monotonically non-decreasing.
type Env interface {
	Now() int64
	Height() int64
}

// Call identifies who is invoking an operation: Sender is the immediate caller,
// Origin the external identity that started the transaction.
type Call struct {
	Sender common.Address
	Origin common.Address
}

// From returns a call made directly by an external identity.
func From(addr common.Address) Call {
	return Call{Sender: addr, Origin: addr}
}

// ManualEnv is an Env whose time and height are advanced explicitly.
type ManualEnv struct {
	mu     sync.Mutex
	now    int64
	height int64
}

// NewManualEnv starts a ManualEnv at the given time and height.
func NewManualEnv(now, height int64) *ManualEnv {
	return &ManualEnv{now: now, height: height}
}

// Now returns the current logical time in unix seconds.
func (e *ManualEnv) Now() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Height returns the current block height.
func (e *ManualEnv) Height() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

// Advance moves time forward by dt seconds and height by dh blocks.
func (e *ManualEnv) Advance(dt, dh int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if dt > 0 {
		e.now += dt
	}
	if dh > 0 {
		e.height += dh
	}
}

// Set jumps to an absolute time and height. Going backwards is ignored.
func (e *ManualEnv) Set(now, height int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now > e.now {
		e.now = now
	}
	if height > e.height {
		e.height = height
	}
}

// SystemEnv follows the wall clock and derives a block height from a fixed
// block interval since genesis.
type SystemEnv struct {
	GenesisTime   time.Time
	GenesisHeight int64
	BlockInterval time.Duration
	clock         func() time.Time
}

// NewSystemEnv derives heights from genesis at one block per interval.
func NewSystemEnv(genesis time.Time, genesisHeight int64, interval time.Duration) *SystemEnv {
	return &SystemEnv{
		GenesisTime:   genesis,
		GenesisHeight: genesisHeight,
		BlockInterval: interval,
		clock:         time.Now,
	}
}

// Now returns the wall-clock time in unix seconds.
func (e *SystemEnv) Now() int64 {
	return e.clock().Unix()
}

// Height is the genesis height plus whole intervals elapsed since genesis.
func (e *SystemEnv) Height() int64 {
	elapsed := e.clock().Sub(e.GenesisTime)
	if elapsed < 0 || e.BlockInterval <= 0 {
		return e.GenesisHeight
	}
	return e.GenesisHeight + int64(elapsed/e.BlockInterval)
}
