package model

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// DepositType tags how a Deposit event was produced.
type DepositType int

const (
	DepositForType DepositType = iota
	CreateLockType
	IncreaseLockAmount
	IncreaseUnlockTime
)

func (t DepositType) String() string {
	switch t {
	case DepositForType:
		return "DEPOSIT_FOR"
	case CreateLockType:
		return "CREATE_LOCK"
	case IncreaseLockAmount:
		return "INCREASE_LOCK_AMOUNT"
	case IncreaseUnlockTime:
		return "INCREASE_UNLOCK_TIME"
	default:
		return "UNKNOWN"
	}
}

// Event is anything the ledger or distributor reports after a successful call.
type Event interface {
	EventName() string
}

// EventSink receives events once the call that produced them has committed.
type EventSink interface {
	Emit(ev Event)
}

// DiscardSink drops every event.
type DiscardSink struct{}

func (DiscardSink) Emit(Event) {}

type DepositEvent struct {
	Provider common.Address
	Value    math.Int
	LockTime int64
	Type     DepositType
	Ts       int64
}

type WithdrawEvent struct {
	Provider common.Address
	Value    math.Int
	Ts       int64
}

type SupplyEvent struct {
	PrevSupply math.Int
	Supply     math.Int
}

type CheckpointTokenEvent struct {
	Time   int64
	Tokens math.Int
}

type ClaimedEvent struct {
	Recipient  common.Address
	Amount     math.Int
	ClaimEpoch int64
	MaxEpoch   int64
}

type ToggleCheckpointTokenEvent struct {
	Enabled bool
}

type KilledEvent struct {
	To     common.Address
	Amount math.Int
}

type RecoveredEvent struct {
	Asset  common.Address
	To     common.Address
	Amount math.Int
}

func (DepositEvent) EventName() string               { return "Deposit" }
func (WithdrawEvent) EventName() string              { return "Withdraw" }
func (SupplyEvent) EventName() string                { return "Supply" }
func (CheckpointTokenEvent) EventName() string       { return "CheckpointToken" }
func (ClaimedEvent) EventName() string               { return "Claimed" }
func (ToggleCheckpointTokenEvent) EventName() string { return "ToggleAllowCheckpointToken" }
func (KilledEvent) EventName() string                { return "Killed" }
func (RecoveredEvent) EventName() string             { return "Recovered" }
