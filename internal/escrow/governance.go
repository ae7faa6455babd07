package escrow

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"

	"VoteEscrow/internal/asset"
	"VoteEscrow/internal/chain"
	"VoteEscrow/internal/model"
)

// Delegates always reports self-delegation; voting power cannot be moved.
func (l *Ledger) Delegates(addr common.Address) common.Address {
	return addr
}

// Delegate always fails with ErrDelegationDisabled.
func (l *Ledger) Delegate(chain.Call, common.Address) error {
	return ErrDelegationDisabled
}

// DelegateBySig always fails with ErrDelegationDisabled.
func (l *Ledger) DelegateBySig(_ common.Address, _, _ int64, _ uint8, _, _ [32]byte) error {
	return ErrDelegationDisabled
}

// SetAgentChecker replaces the oracle that vets non-human depositors. A nil
// checker rejects every such caller.
func (l *Ledger) SetAgentChecker(call chain.Call, checker chain.AgentChecker) error {
	if err := chain.Require(l.auth, chain.PermissionSetAgentChecker, call.Sender); err != nil {
		return err
	}
	l.agents = checker
	return nil
}

// Recover sends the ledger's whole balance of a mistakenly transferred asset
// to to. The base asset can never be recovered.
func (l *Ledger) Recover(call chain.Call, token asset.Asset, to common.Address) error {
	return l.nonReentrant(func() error {
		if err := chain.Require(l.auth, chain.PermissionRecoverLedger, call.Sender); err != nil {
			return err
		}
		if token.Address() == l.token.Address() {
			return ErrRecoverBaseAsset
		}
		bal, err := token.BalanceOf(l.addr)
		if err != nil {
			return eris.Wrap(err, "read balance to recover")
		}
		if bal.IsPositive() {
			if err := asset.SafeTransfer(token, l.addr, to, bal); err != nil {
				return err
			}
		}
		l.emit(model.RecoveredEvent{Asset: token.Address(), To: to, Amount: bal})
		return nil
	})
}
