package feedist

import (
	"cosmossdk.io/math"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/journal"
	"VoteEscrow/internal/model"
)

// CheckpointToken attributes fee income received since the last token
// checkpoint to weekly buckets. Anyone may call it once checkpointing is
// enabled and the last checkpoint is older than TokenCheckpointDeadline.
func (d *Distributor) CheckpointToken() error {
	return d.journal.Run(func() error {
		if !d.st.CanCheckpointToken {
			return eris.Wrap(ErrCheckpointTooEarly, "token checkpointing is disabled")
		}
		if !d.tokenCheckpointDue() {
			return eris.Wrapf(ErrCheckpointTooEarly, "last token checkpoint at %d", d.st.LastTokenTime)
		}
		return d.checkpointToken()
	})
}

// CheckpointTokenAuthorized is CheckpointToken without the deadline and the
// enable flag, for holders of PermissionCheckpointToken.
func (d *Distributor) CheckpointTokenAuthorized(call chain.Call) error {
	return d.journal.Run(func() error {
		if err := chain.Require(d.auth, chain.PermissionCheckpointToken, call.Sender); err != nil {
			return err
		}
		return d.checkpointToken()
	})
}

// CheckpointTotalSupply snapshots the ledger's total voting power for every
// completed week boundary since the last snapshot.
func (d *Distributor) CheckpointTotalSupply() error {
	return d.journal.Run(func() error {
		d.checkpointTotalSupply()
		return nil
	})
}

func (d *Distributor) tokenCheckpointDue() bool {
	return d.env.Now() > d.st.LastTokenTime+TokenCheckpointDeadline
}

func (d *Distributor) checkpointToken() error {
	now := d.env.Now()
	balance, err := d.token.BalanceOf(d.addr)
	if err != nil {
		return eris.Wrap(err, "read fee balance")
	}
	toDistribute := balance.Sub(d.st.TokenLastBalance)
	if toDistribute.IsNegative() {
		return eris.Errorf("fee balance %s is below the recorded %s", balance, d.st.TokenLastBalance)
	}
	journal.Set(&d.journal, &d.st.TokenLastBalance, balance)

	t := d.st.LastTokenTime
	sinceLast := now - t
	journal.Set(&d.journal, &d.st.LastTokenTime, now)

	thisWeek := model.FloorWeek(t)
	done := false
	for i := 0; i < tokenCheckpointWeeks; i++ {
		nextWeek := thisWeek + model.Week
		if now < nextWeek {
			if sinceLast == 0 && now == t {
				d.addTokens(thisWeek, toDistribute)
			} else {
				d.addTokens(thisWeek, toDistribute.MulRaw(now-t).QuoRaw(sinceLast))
			}
			done = true
			break
		}
		if sinceLast == 0 && nextWeek == t {
			d.addTokens(thisWeek, toDistribute)
		} else {
			d.addTokens(thisWeek, toDistribute.MulRaw(nextWeek-t).QuoRaw(sinceLast))
		}
		t = nextWeek
		thisWeek = nextWeek
	}
	if !done {
		log.Debug().
			Int64("attributed_until", t).
			Int64("now", now).
			Msg("token checkpoint hit its week bound; later weeks receive nothing from this income")
	}

	d.emit(model.CheckpointTokenEvent{Time: now, Tokens: toDistribute})
	return nil
}

func (d *Distributor) addTokens(week int64, amount math.Int) {
	journal.SetKey(&d.journal, d.st.TokensPerWeek, week, d.TokensPerWeek(week).Add(amount))
}

// checkpointTotalSupply seals ve_supply for week boundaries strictly before
// now. The ledger is only read.
func (d *Distributor) checkpointTotalSupply() {
	now := d.env.Now()
	t := d.st.TimeCursor
	for i := 0; i < supplyCheckpointWeeks; i++ {
		if t >= now {
			break
		}
		journal.SetKey(&d.journal, d.st.VeSupply, t, d.escrow.TotalSupplyAt(t))
		t += model.Week
	}
	if t < now {
		log.Debug().
			Int64("time_cursor", t).
			Int64("now", now).
			Msg("supply checkpoint hit its week bound; call again to catch up")
	}
	journal.Set(&d.journal, &d.st.TimeCursor, t)
}
