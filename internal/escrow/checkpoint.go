package escrow

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
)

// Checkpoint advances the global curve to the current time without touching
// any account.
func (l *Ledger) Checkpoint() error {
	return l.journal.Run(func() error {
		l.checkpoint(chain.ZeroAddress, model.EmptyLock(), model.EmptyLock())
		return nil
	})
}

// lockPoint is the curve contribution of a lock at now.
func lockPoint(lb model.LockedBalance, now int64) model.Point {
	p := model.EmptyPoint()
	if lb.Active(now) {
		p.Slope = lb.Amount.QuoRaw(model.MaxTime)
		p.Bias = p.Slope.MulRaw(lb.End - now)
	}
	return p
}

// checkpoint records the global curve up to now, folds in the change of addr's
// lock from oldLocked to newLocked, and reschedules the slope changes at both
// lock ends. A zero addr only advances the global curve.
func (l *Ledger) checkpoint(addr common.Address, oldLocked, newLocked model.LockedBalance) {
	now, height := l.env.Now(), l.env.Height()
	account := addr != chain.ZeroAddress

	uOld, uNew := model.EmptyPoint(), model.EmptyPoint()
	oldDSlope, newDSlope := math.ZeroInt(), math.ZeroInt()
	if account {
		uOld = lockPoint(oldLocked, now)
		uNew = lockPoint(newLocked, now)

		oldDSlope = l.slopeChange(oldLocked.End)
		if newLocked.End != 0 {
			if newLocked.End == oldLocked.End {
				newDSlope = oldDSlope
			} else {
				newDSlope = l.slopeChange(newLocked.End)
			}
		}
	}

	epoch := l.Epoch()
	lastPoint := model.Point{Bias: math.ZeroInt(), Slope: math.ZeroInt(), Ts: now, Blk: height}
	if epoch > 0 {
		lastPoint = l.st.PointHistory[epoch]
	}
	// A second checkpoint in the same block rewrites the current point.
	overwrite := epoch > 0 && lastPoint.Ts == now && lastPoint.Blk == height

	initial := lastPoint
	lastCheckpoint := lastPoint.Ts
	blockSlope := math.ZeroInt()
	if now > lastPoint.Ts {
		blockSlope = blockSlopeMultiplier.MulRaw(height - lastPoint.Blk).QuoRaw(now - lastPoint.Ts)
	}

	ti := model.FloorWeek(lastCheckpoint)
	for i := 0; i < MaxCheckpointWeeks; i++ {
		ti += model.Week
		dSlope := math.ZeroInt()
		if ti > now {
			ti = now
		} else {
			dSlope = l.slopeChange(ti)
		}
		lastPoint.Bias = model.FloorZero(lastPoint.Bias.Sub(lastPoint.Slope.MulRaw(ti - lastCheckpoint)))
		lastPoint.Slope = model.FloorZero(lastPoint.Slope.Add(dSlope))
		lastCheckpoint = ti
		lastPoint.Ts = ti
		lastPoint.Blk = initial.Blk + blockSlope.MulRaw(ti-initial.Ts).Quo(blockSlopeMultiplier).Int64()

		if ti == now {
			lastPoint.Blk = height
			break
		}
		if i == MaxCheckpointWeeks-1 {
			log.Debug().
				Int64("reached", ti).
				Int64("now", now).
				Msg("global checkpoint hit its week bound; call Checkpoint again to catch up")
			break
		}
		l.appendPoint(lastPoint)
	}

	if account {
		lastPoint.Slope = model.FloorZero(lastPoint.Slope.Add(uNew.Slope).Sub(uOld.Slope))
		lastPoint.Bias = model.FloorZero(lastPoint.Bias.Add(uNew.Bias).Sub(uOld.Bias))
	}
	if overwrite {
		l.replacePoint(epoch, lastPoint)
	} else {
		l.appendPoint(lastPoint)
	}

	if !account {
		return
	}
	if oldLocked.End > now {
		oldDSlope = oldDSlope.Add(uOld.Slope)
		if newLocked.End == oldLocked.End {
			oldDSlope = oldDSlope.Sub(uNew.Slope)
		}
		l.setSlopeChange(oldLocked.End, oldDSlope)
	}
	if newLocked.End > now && newLocked.End != oldLocked.End {
		newDSlope = newDSlope.Sub(uNew.Slope)
		l.setSlopeChange(newLocked.End, newDSlope)
	}

	uNew.Ts = now
	uNew.Blk = height
	l.appendUserPoint(addr, uNew)
}
