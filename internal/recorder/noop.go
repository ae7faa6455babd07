package recorder

import "VoteEscrow/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDeposit(string, model.DepositEvent) error                 { return nil }
func (n *NoopRecorder) RecordWithdraw(string, model.WithdrawEvent) error               { return nil }
func (n *NoopRecorder) RecordSupply(string, model.SupplyEvent) error                   { return nil }
func (n *NoopRecorder) RecordCheckpointToken(string, model.CheckpointTokenEvent) error { return nil }
func (n *NoopRecorder) RecordClaim(string, model.ClaimedEvent) error                   { return nil }
func (n *NoopRecorder) RecordGovernance(string, model.Event) error                     { return nil }
func (n *NoopRecorder) Close() error                                                   { return nil }
