package model

import "cosmossdk.io/math"

// LockedBalance is an account's escrowed amount and its week-aligned unlock time.
type LockedBalance struct {
	Amount math.Int `json:"amount"`
	End    int64    `json:"end"`
}

// EmptyLock returns the zero lock with initialized amounts.
func EmptyLock() LockedBalance {
	return LockedBalance{Amount: math.ZeroInt()}
}

// Active reports whether the lock still holds funds and ends after now.
func (l LockedBalance) Active(now int64) bool {
	return l.End > now && l.Amount.IsPositive()
}

// Point is a snapshot of a decaying voting-power curve: its value (Bias) and
// rate of decay per second (Slope) at time Ts and block height Blk.
type Point struct {
	Bias  math.Int `json:"bias"`
	Slope math.Int `json:"slope"`
	Ts    int64    `json:"ts"`
	Blk   int64    `json:"blk"`
}

// EmptyPoint returns a zero point with initialized amounts.
func EmptyPoint() Point {
	return Point{Bias: math.ZeroInt(), Slope: math.ZeroInt()}
}

// BiasAt decays the point linearly to t and floors the result at zero.
func (p Point) BiasAt(t int64) math.Int {
	return FloorZero(p.Bias.Sub(p.Slope.MulRaw(t - p.Ts)))
}

// FloorZero clamps negative values to zero.
func FloorZero(v math.Int) math.Int {
	if v.IsNegative() {
		return math.ZeroInt()
	}
	return v
}
