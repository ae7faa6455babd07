package recorder

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/model"
)

// Sink adapts a Recorder to model.EventSink. Begin starts a new call id;
// every event emitted until the next Begin is recorded under it.
type Sink struct {
	rec Recorder

	mu     sync.Mutex
	callID string
}

func NewSink(rec Recorder) *Sink {
	return &Sink{rec: rec}
}

// Begin assigns a fresh call id and returns it.
func (s *Sink) Begin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callID = uuid.NewString()
	return s.callID
}

func (s *Sink) currentCall() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callID == "" {
		s.callID = uuid.NewString()
	}
	return s.callID
}

// Emit records ev. Recording failures are logged, never returned: the call
// that produced the event has already committed.
func (s *Sink) Emit(ev model.Event) {
	id := s.currentCall()
	if err := s.record(id, ev); err != nil {
		log.Warn().Err(err).Str("call_id", id).Str("event", ev.EventName()).Msg("failed to record event")
	}
}

func (s *Sink) record(id string, ev model.Event) error {
	switch e := ev.(type) {
	case model.DepositEvent:
		return s.rec.RecordDeposit(id, e)
	case model.WithdrawEvent:
		return s.rec.RecordWithdraw(id, e)
	case model.SupplyEvent:
		return s.rec.RecordSupply(id, e)
	case model.CheckpointTokenEvent:
		return s.rec.RecordCheckpointToken(id, e)
	case model.ClaimedEvent:
		return s.rec.RecordClaim(id, e)
	case model.ToggleCheckpointTokenEvent, model.KilledEvent, model.RecoveredEvent:
		return s.rec.RecordGovernance(id, e)
	default:
		return eris.Errorf("unknown event %T", ev)
	}
}
