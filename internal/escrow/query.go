package escrow

import (
	"sort"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"

	"VoteEscrow/internal/model"
)

// Epoch is the index of the latest global point.
func (l *Ledger) Epoch() int64 {
	return int64(len(l.st.PointHistory) - 1)
}

// PointHistory returns the global point at epoch, or an empty point when out
// of range.
func (l *Ledger) PointHistory(epoch int64) model.Point {
	if epoch < 0 || epoch >= int64(len(l.st.PointHistory)) {
		return model.EmptyPoint()
	}
	return l.st.PointHistory[epoch]
}

// UserPointEpoch is the number of checkpoints recorded for addr.
func (l *Ledger) UserPointEpoch(addr common.Address) int64 {
	hist := l.st.UserPointHistory[addr]
	if len(hist) == 0 {
		return 0
	}
	return int64(len(hist) - 1)
}

// UserPointHistory returns addr's point at epoch. Epochs start at 1; epoch 0
// and out-of-range epochs are empty points.
func (l *Ledger) UserPointHistory(addr common.Address, epoch int64) model.Point {
	hist := l.st.UserPointHistory[addr]
	if epoch < 0 || epoch >= int64(len(hist)) {
		return model.EmptyPoint()
	}
	return hist[epoch]
}

// UserPointHistoryTs is the timestamp of addr's checkpoint at idx.
func (l *Ledger) UserPointHistoryTs(addr common.Address, idx int64) int64 {
	return l.UserPointHistory(addr, idx).Ts
}

// GetLastUserSlope is the decay rate of addr's latest checkpoint.
func (l *Ledger) GetLastUserSlope(addr common.Address) math.Int {
	return l.UserPointHistory(addr, l.UserPointEpoch(addr)).Slope
}

// Locked returns addr's lock.
func (l *Ledger) Locked(addr common.Address) model.LockedBalance {
	return l.locked(addr)
}

// LockedEnd is the unlock time of addr's lock, zero when there is none.
func (l *Ledger) LockedEnd(addr common.Address) int64 {
	return l.locked(addr).End
}

// SlopeChange is the slope delta scheduled at week boundary t.
func (l *Ledger) SlopeChange(t int64) math.Int {
	return l.slopeChange(t)
}

// Supply is the total base asset currently locked.
func (l *Ledger) Supply() math.Int {
	return l.st.Supply
}

// FindEpochForHeight returns the greatest epoch whose recorded height is at
// most height, or 0.
func (l *Ledger) FindEpochForHeight(height int64) int64 {
	h := l.st.PointHistory
	i := sort.Search(len(h), func(i int) bool { return h[i].Blk > height })
	if i == 0 {
		return 0
	}
	return int64(i - 1)
}

// FindEpochForTime returns the greatest epoch whose timestamp is at most t,
// or 0.
func (l *Ledger) FindEpochForTime(t int64) int64 {
	h := l.st.PointHistory
	i := sort.Search(len(h), func(i int) bool { return h[i].Ts > t })
	if i == 0 {
		return 0
	}
	return int64(i - 1)
}

// FindUserEpochForTime returns the greatest of addr's epochs up to maxEpoch
// whose timestamp is at most t, or 0 when t precedes the first one.
func (l *Ledger) FindUserEpochForTime(addr common.Address, t, maxEpoch int64) int64 {
	hist := l.st.UserPointHistory[addr]
	if maxEpoch >= int64(len(hist)) {
		maxEpoch = int64(len(hist)) - 1
	}
	if maxEpoch <= 0 {
		return 0
	}
	h := hist[1 : maxEpoch+1]
	i := sort.Search(len(h), func(i int) bool { return h[i].Ts > t })
	return int64(i)
}

// BalanceOf is addr's voting power now.
func (l *Ledger) BalanceOf(addr common.Address) math.Int {
	return l.BalanceOfAt(addr, l.env.Now())
}

// BalanceOfAt is addr's voting power at time t, decayed from the last
// checkpoint at or before t.
func (l *Ledger) BalanceOfAt(addr common.Address, t int64) math.Int {
	epoch := l.FindUserEpochForTime(addr, t, l.UserPointEpoch(addr))
	if epoch == 0 {
		return math.ZeroInt()
	}
	return l.UserPointHistory(addr, epoch).BiasAt(t)
}

// BalanceOfAtHeight is addr's voting power at a past block height.
func (l *Ledger) BalanceOfAtHeight(addr common.Address, height int64) (math.Int, error) {
	if height > l.env.Height() {
		return math.Int{}, eris.Wrapf(ErrFutureHeight, "height %d", height)
	}
	hist := l.st.UserPointHistory[addr]
	if len(hist) < 2 {
		return math.ZeroInt(), nil
	}
	h := hist[1:]
	i := sort.Search(len(h), func(i int) bool { return h[i].Blk > height })
	if i == 0 {
		return math.ZeroInt(), nil
	}
	upoint := h[i-1]

	blockTime, ok := l.heightToTime(height)
	if !ok {
		return math.ZeroInt(), nil
	}
	return upoint.BiasAt(blockTime), nil
}

// TotalSupply is the total voting power now.
func (l *Ledger) TotalSupply() math.Int {
	return l.TotalSupplyAt(l.env.Now())
}

// TotalSupplyAt is the total voting power at time t, replayed week by week from
// the last global point at or before t.
func (l *Ledger) TotalSupplyAt(t int64) math.Int {
	epoch := l.FindEpochForTime(t)
	p := l.st.PointHistory[epoch]
	if t < p.Ts {
		return math.ZeroInt()
	}
	return l.supplyAt(p, t)
}

// TotalSupplyAtHeight is the total voting power at a past block height.
func (l *Ledger) TotalSupplyAtHeight(height int64) (math.Int, error) {
	if height > l.env.Height() {
		return math.Int{}, eris.Wrapf(ErrFutureHeight, "height %d", height)
	}
	epoch := l.FindEpochForHeight(height)
	p := l.st.PointHistory[epoch]
	t, ok := l.heightToTime(height)
	if !ok {
		return math.ZeroInt(), nil
	}
	return l.supplyAt(p, t), nil
}

// heightToTime estimates the timestamp of a past height by interpolating
// between the surrounding global points, or between the last point and now.
func (l *Ledger) heightToTime(height int64) (int64, bool) {
	epoch := l.FindEpochForHeight(height)
	p := l.st.PointHistory[epoch]
	if height < p.Blk {
		return 0, false
	}
	var dBlock, dt int64
	if epoch < l.Epoch() {
		next := l.st.PointHistory[epoch+1]
		dBlock = next.Blk - p.Blk
		dt = next.Ts - p.Ts
	} else {
		dBlock = l.env.Height() - p.Blk
		dt = l.env.Now() - p.Ts
	}
	t := p.Ts
	if dBlock != 0 {
		t += math.NewInt(dt).MulRaw(height - p.Blk).QuoRaw(dBlock).Int64()
	}
	return t, true
}

// supplyAt decays point to t, applying scheduled slope changes at each week
// boundary the same way checkpoint does.
func (l *Ledger) supplyAt(point model.Point, t int64) math.Int {
	p := point
	ti := model.FloorWeek(p.Ts)
	for i := 0; i < MaxCheckpointWeeks; i++ {
		ti += model.Week
		dSlope := math.ZeroInt()
		if ti > t {
			ti = t
		} else {
			dSlope = l.slopeChange(ti)
		}
		p.Bias = model.FloorZero(p.Bias.Sub(p.Slope.MulRaw(ti - p.Ts)))
		if ti == t {
			break
		}
		p.Slope = model.FloorZero(p.Slope.Add(dSlope))
		p.Ts = ti
	}
	return p.Bias
}

// GetVotes is BalanceOf under its governance-facing name.
func (l *Ledger) GetVotes(addr common.Address) math.Int {
	return l.BalanceOf(addr)
}

// GetPastVotes is addr's voting power at a past height.
func (l *Ledger) GetPastVotes(addr common.Address, height int64) (math.Int, error) {
	return l.BalanceOfAtHeight(addr, height)
}

// GetPastTotalSupply is the total voting power at a past height.
func (l *Ledger) GetPastTotalSupply(height int64) (math.Int, error) {
	return l.TotalSupplyAtHeight(height)
}
