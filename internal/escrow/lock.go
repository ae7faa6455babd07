package escrow

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
)

// CreateLock locks value of the base asset for the caller until unlockTime,
// rounded down to a week boundary.
func (l *Ledger) CreateLock(call chain.Call, value math.Int, unlockTime int64) error {
	return l.nonReentrant(func() error {
		if err := l.assertNotContract(call); err != nil {
			return err
		}
		now := l.env.Now()
		unlock := model.FloorWeek(unlockTime)
		locked := l.locked(call.Sender)

		if !value.IsPositive() {
			return eris.Wrapf(ErrZeroValue, "create lock with %s", value)
		}
		if !locked.Amount.IsZero() {
			return ErrWithdrawOldFirst
		}
		if unlock <= now {
			return eris.Wrapf(ErrUnlockInPast, "unlock %d, now %d", unlock, now)
		}
		if unlock > now+model.MaxTime {
			return eris.Wrapf(ErrUnlockTooFar, "unlock %d, max %d", unlock, now+model.MaxTime)
		}
		return l.depositFor(call.Sender, call.Sender, value, unlock, locked, model.CreateLockType)
	})
}

// IncreaseAmount adds value to the caller's unexpired lock without changing
// its end.
func (l *Ledger) IncreaseAmount(call chain.Call, value math.Int) error {
	return l.nonReentrant(func() error {
		if err := l.assertNotContract(call); err != nil {
			return err
		}
		locked := l.locked(call.Sender)
		if err := l.requireTopUp(locked, value); err != nil {
			return err
		}
		return l.depositFor(call.Sender, call.Sender, value, 0, locked, model.IncreaseLockAmount)
	})
}

// IncreaseUnlockTime moves the caller's lock end later.
func (l *Ledger) IncreaseUnlockTime(call chain.Call, unlockTime int64) error {
	return l.nonReentrant(func() error {
		if err := l.assertNotContract(call); err != nil {
			return err
		}
		now := l.env.Now()
		locked := l.locked(call.Sender)
		unlock := model.FloorWeek(unlockTime)

		if locked.End <= now {
			return eris.Wrapf(ErrLockExpired, "lock ended at %d", locked.End)
		}
		if !locked.Amount.IsPositive() {
			return ErrNoLock
		}
		if unlock <= locked.End {
			return eris.Wrapf(ErrUnlockNotIncreased, "unlock %d, current end %d", unlock, locked.End)
		}
		if unlock > now+model.MaxTime {
			return eris.Wrapf(ErrUnlockTooFar, "unlock %d, max %d", unlock, now+model.MaxTime)
		}
		return l.depositFor(call.Sender, call.Sender, math.ZeroInt(), unlock, locked, model.IncreaseUnlockTime)
	})
}

// DepositFor adds value from the caller to addr's unexpired lock. Unlike the
// caller's own lock operations it does not vet the caller.
func (l *Ledger) DepositFor(call chain.Call, addr common.Address, value math.Int) error {
	return l.nonReentrant(func() error {
		locked := l.locked(addr)
		if err := l.requireTopUp(locked, value); err != nil {
			return err
		}
		return l.depositFor(call.Sender, addr, value, 0, locked, model.DepositForType)
	})
}

// Withdraw releases the caller's whole expired lock.
func (l *Ledger) Withdraw(call chain.Call) error {
	return l.nonReentrant(func() error {
		now := l.env.Now()
		locked := l.locked(call.Sender)
		if locked.Amount.IsZero() {
			return ErrNoLock
		}
		if now < locked.End {
			return eris.Wrapf(ErrLockNotExpired, "lock ends at %d, now %d", locked.End, now)
		}

		value := locked.Amount
		l.setLocked(call.Sender, model.EmptyLock())
		supplyBefore := l.st.Supply
		l.setSupply(supplyBefore.Sub(value))

		l.checkpoint(call.Sender, locked, model.EmptyLock())

		if err := asset.SafeTransfer(l.token, l.addr, call.Sender, value); err != nil {
			return err
		}
		l.emit(model.WithdrawEvent{Provider: call.Sender, Value: value, Ts: now})
		l.emit(model.SupplyEvent{PrevSupply: supplyBefore, Supply: supplyBefore.Sub(value)})
		return nil
	})
}

func (l *Ledger) requireTopUp(locked model.LockedBalance, value math.Int) error {
	if !value.IsPositive() {
		return eris.Wrapf(ErrZeroValue, "deposit %s", value)
	}
	if !locked.Amount.IsPositive() {
		return ErrNoLock
	}
	if locked.End <= l.env.Now() {
		return eris.Wrapf(ErrLockExpired, "lock ended at %d", locked.End)
	}
	return nil
}

// assertNotContract lets external identities through and requires any other
// caller to be approved by the agent checker.
func (l *Ledger) assertNotContract(call chain.Call) error {
	if call.Sender == call.Origin {
		return nil
	}
	if l.agents != nil && l.agents.Check(call.Sender) {
		return nil
	}
	return eris.Wrapf(ErrNotAllowed, "caller %s", call.Sender.Hex())
}

// depositFor moves value from payer into addr's lock, optionally setting a new
// end, and checkpoints the change.
func (l *Ledger) depositFor(payer, addr common.Address, value math.Int, unlockTime int64,
	locked model.LockedBalance, typ model.DepositType,
) error {
	now := l.env.Now()
	supplyBefore := l.st.Supply
	l.setSupply(supplyBefore.Add(value))

	newLocked := model.LockedBalance{Amount: locked.Amount.Add(value), End: locked.End}
	if unlockTime != 0 {
		newLocked.End = unlockTime
	}
	l.setLocked(addr, newLocked)

	l.checkpoint(addr, locked, newLocked)

	if value.IsPositive() {
		if err := asset.SafeTransferFrom(l.token, l.addr, payer, l.addr, value); err != nil {
			return err
		}
	}
	l.emit(model.DepositEvent{Provider: addr, Value: value, LockTime: newLocked.End, Type: typ, Ts: now})
	l.emit(model.SupplyEvent{PrevSupply: supplyBefore, Supply: supplyBefore.Add(value)})
	return nil
}
