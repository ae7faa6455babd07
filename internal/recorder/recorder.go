package recorder

import "VoteEscrow/internal/model"

// Recorder persists ledger and distributor events for later analysis.
// callID groups the events one call produced.
type Recorder interface {
	RecordDeposit(callID string, evt model.DepositEvent) error
	RecordWithdraw(callID string, evt model.WithdrawEvent) error
	RecordSupply(callID string, evt model.SupplyEvent) error
	RecordCheckpointToken(callID string, evt model.CheckpointTokenEvent) error
	RecordClaim(callID string, evt model.ClaimedEvent) error
	RecordGovernance(callID string, evt model.Event) error
	Close() error
}
