package feedist

import "github.com/rotisserie/eris"

var (
	ErrKilled             = eris.New("distributor is killed")
	ErrCheckpointTooEarly = eris.New("token checkpoint not allowed yet")
	ErrWrongCoin          = eris.New("coin is not the fee asset")
	ErrTooManyReceivers   = eris.New("too many receivers")
	ErrRecoverFeeAsset    = eris.New("cannot recover the fee asset")
)
