package escrow

import "github.com/rotisserie/eris"

var (
	ErrZeroValue          = eris.New("value must be positive")
	ErrNoLock             = eris.New("no existing lock found")
	ErrLockExpired        = eris.New("lock expired, withdraw first")
	ErrLockNotExpired     = eris.New("lock has not expired")
	ErrWithdrawOldFirst   = eris.New("withdraw old tokens first")
	ErrUnlockInPast       = eris.New("can only lock until a time in the future")
	ErrUnlockTooFar       = eris.New("lock exceeds the maximum duration")
	ErrUnlockNotIncreased = eris.New("can only increase lock duration")
	ErrDecimalsOverflow   = eris.New("decimals exceed maximum")
	ErrFutureHeight       = eris.New("height is in the future")
	ErrNotAllowed         = eris.New("smart contract depositors not allowed")
	ErrDelegationDisabled = eris.New("delegation is not supported")
	ErrRecoverBaseAsset   = eris.New("cannot recover the locked asset")
)
