package feedist

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/journal"
	"VoteEscrow/internal/model"
)

// Claim pays addr its share of every completed week not yet claimed, up to
// claimIterations steps. Anyone may claim on behalf of addr; the payout
// always goes to addr.
func (d *Distributor) Claim(addr common.Address) (math.Int, error) {
	amount := math.ZeroInt()
	err := d.nonReentrant(func() error {
		if d.st.IsKilled {
			return ErrKilled
		}
		lastTokenTime := d.prepareClaim()

		amount = d.claim(addr, lastTokenTime)
		if !amount.IsPositive() {
			return nil
		}
		journal.Set(&d.journal, &d.st.TokenLastBalance, d.st.TokenLastBalance.Sub(amount))
		return d.payout(addr, amount)
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	return amount, nil
}

// ClaimMany claims for up to MaxReceivers accounts, stopping at the first zero
// address, and returns the total paid. All claims are settled before anyone is
// paid; if any payout fails, the payouts already made are sent back.
func (d *Distributor) ClaimMany(receivers []common.Address) (math.Int, error) {
	total := math.ZeroInt()
	err := d.nonReentrant(func() error {
		if d.st.IsKilled {
			return ErrKilled
		}
		if len(receivers) > MaxReceivers {
			return eris.Wrapf(ErrTooManyReceivers, "%d receivers, max %d", len(receivers), MaxReceivers)
		}
		lastTokenTime := d.prepareClaim()

		type owed struct {
			addr   common.Address
			amount math.Int
		}
		var payouts []owed
		for _, addr := range receivers {
			if addr == chain.ZeroAddress {
				break
			}
			amount := d.claim(addr, lastTokenTime)
			if amount.IsPositive() {
				payouts = append(payouts, owed{addr, amount})
				total = total.Add(amount)
			}
		}
		if !total.IsPositive() {
			return nil
		}
		journal.Set(&d.journal, &d.st.TokenLastBalance, d.st.TokenLastBalance.Sub(total))

		for _, p := range payouts {
			if err := d.payout(p.addr, p.amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	return total, nil
}

// Burn pulls the caller's whole balance of the fee asset into the
// distributor.
func (d *Distributor) Burn(call chain.Call, coin common.Address) error {
	return d.nonReentrant(func() error {
		if coin != d.token.Address() {
			return eris.Wrapf(ErrWrongCoin, "coin %s", coin.Hex())
		}
		if d.st.IsKilled {
			return ErrKilled
		}
		amount, err := d.token.BalanceOf(call.Sender)
		if err != nil {
			return eris.Wrap(err, "read burner balance")
		}
		if !amount.IsPositive() {
			return nil
		}
		if err := asset.SafeTransferFrom(d.token, d.addr, call.Sender, d.addr, amount); err != nil {
			return err
		}
		if d.st.CanCheckpointToken && d.tokenCheckpointDue() {
			return d.checkpointToken()
		}
		return nil
	})
}

// prepareClaim brings the supply snapshots and, when allowed, the token
// buckets up to date, and returns the week up to which claims may run.
func (d *Distributor) prepareClaim() int64 {
	now := d.env.Now()
	if now >= d.st.TimeCursor {
		d.checkpointTotalSupply()
	}
	lastTokenTime := d.st.LastTokenTime
	if d.st.CanCheckpointToken && d.tokenCheckpointDue() {
		if err := d.checkpointToken(); err != nil {
			log.Warn().Err(err).Msg("skipping token checkpoint before claim")
		} else {
			lastTokenTime = now
		}
	}
	return model.FloorWeek(lastTokenTime)
}

// claim walks addr's ledger history week by week from its cursor and returns
// the amount owed. It stops early at lastTokenTime, at the first week without
// a supply snapshot, or after claimIterations steps.
func (d *Distributor) claim(addr common.Address, lastTokenTime int64) math.Int {
	toDistribute := math.ZeroInt()
	maxEpoch := d.escrow.UserPointEpoch(addr)
	if maxEpoch == 0 {
		return toDistribute
	}

	weekCursor := d.st.TimeCursorOf[addr]
	var userEpoch int64
	if weekCursor == 0 {
		userEpoch = d.escrow.FindUserEpochForTime(addr, d.st.StartTime, maxEpoch)
	} else {
		userEpoch = d.st.UserEpochOf[addr]
	}
	if userEpoch == 0 {
		userEpoch = 1
	}
	userPoint := d.escrow.UserPointHistory(addr, userEpoch)
	if weekCursor == 0 {
		weekCursor = model.CeilWeek(userPoint.Ts)
	}
	if weekCursor >= lastTokenTime {
		return toDistribute
	}
	if weekCursor < d.st.StartTime {
		weekCursor = d.st.StartTime
	}

	oldPoint := model.EmptyPoint()
	i := 0
	for ; i < claimIterations; i++ {
		if weekCursor >= lastTokenTime || weekCursor >= d.st.TimeCursor {
			break
		}
		if weekCursor >= userPoint.Ts && userEpoch <= maxEpoch {
			userEpoch++
			oldPoint = userPoint
			if userEpoch > maxEpoch {
				userPoint = model.EmptyPoint()
			} else {
				userPoint = d.escrow.UserPointHistory(addr, userEpoch)
			}
			continue
		}
		balance := oldPoint.BiasAt(weekCursor)
		if balance.IsZero() && userEpoch > maxEpoch {
			break
		}
		supply := d.VeSupply(weekCursor)
		if balance.IsPositive() && supply.IsPositive() {
			toDistribute = toDistribute.Add(balance.Mul(d.TokensPerWeek(weekCursor)).Quo(supply))
		}
		weekCursor += model.Week
	}
	if i == claimIterations {
		log.Debug().
			Str("account", addr.Hex()).
			Int64("week_cursor", weekCursor).
			Msg("claim hit its iteration bound; claim again for the rest")
	}

	userEpoch = min(maxEpoch, userEpoch-1)
	journal.SetKey(&d.journal, d.st.UserEpochOf, addr, userEpoch)
	journal.SetKey(&d.journal, d.st.TimeCursorOf, addr, weekCursor)

	d.emit(model.ClaimedEvent{
		Recipient:  addr,
		Amount:     toDistribute,
		ClaimEpoch: userEpoch,
		MaxEpoch:   maxEpoch,
	})
	return toDistribute
}
