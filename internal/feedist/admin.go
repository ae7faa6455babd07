package feedist

import (
	"cosmossdk.io/math"
	"github.com/rotisserie/eris"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/journal"
	"VoteEscrow/internal/model"
)

// ToggleAllowCheckpointToken flips whether unprivileged callers may trigger
// token checkpoints.
func (d *Distributor) ToggleAllowCheckpointToken(call chain.Call) error {
	return d.journal.Run(func() error {
		if err := chain.Require(d.auth, chain.PermissionToggleCheckpoint, call.Sender); err != nil {
			return err
		}
		enabled := !d.st.CanCheckpointToken
		journal.Set(&d.journal, &d.st.CanCheckpointToken, enabled)
		d.emit(model.ToggleCheckpointTokenEvent{Enabled: enabled})
		return nil
	})
}

// Kill permanently disables claims and burns and sends the whole fee balance
// to the emergency return address. It cannot be undone.
func (d *Distributor) Kill(call chain.Call) error {
	return d.nonReentrant(func() error {
		if err := chain.Require(d.auth, chain.PermissionKill, call.Sender); err != nil {
			return err
		}
		journal.Set(&d.journal, &d.st.IsKilled, true)

		bal, err := d.token.BalanceOf(d.addr)
		if err != nil {
			return eris.Wrap(err, "read fee balance")
		}
		journal.Set(&d.journal, &d.st.TokenLastBalance, math.ZeroInt())
		if bal.IsPositive() {
			if err := d.payout(d.emergencyReturn, bal); err != nil {
				return err
			}
		}
		d.emit(model.KilledEvent{To: d.emergencyReturn, Amount: bal})
		return nil
	})
}

// RecoverBalance sends the distributor's whole balance of a stray asset to the
// emergency return address. The fee asset can never be recovered this way.
func (d *Distributor) RecoverBalance(call chain.Call, coin asset.Asset) error {
	return d.nonReentrant(func() error {
		if err := chain.Require(d.auth, chain.PermissionRecoverFees, call.Sender); err != nil {
			return err
		}
		if coin.Address() == d.token.Address() {
			return ErrRecoverFeeAsset
		}
		bal, err := coin.BalanceOf(d.addr)
		if err != nil {
			return eris.Wrap(err, "read balance to recover")
		}
		if bal.IsPositive() {
			if err := asset.SafeTransfer(coin, d.addr, d.emergencyReturn, bal); err != nil {
				return err
			}
		}
		d.emit(model.RecoveredEvent{Asset: coin.Address(), To: d.emergencyReturn, Amount: bal})
		return nil
	})
}
