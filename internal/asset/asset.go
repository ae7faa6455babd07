// Package asset defines the fungible-asset surface the ledger and distributor
// consume, plus an in-memory token.
package asset

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
)

var ErrTransferFailed = eris.New("asset transfer failed")

// Asset is a fungible token. A false result from Transfer or TransferFrom and a
// returned error are both treated as failure by callers.
type Asset interface {
	Address() common.Address
	Decimals() int
	BalanceOf(holder common.Address) (math.Int, error)
	Transfer(from, to common.Address, amount math.Int) (bool, error)
	TransferFrom(spender, from, to common.Address, amount math.Int) (bool, error)
}

// SafeTransfer moves amount from holder to to and folds both failure signals
// into ErrTransferFailed.
func SafeTransfer(a Asset, from, to common.Address, amount math.Int) error {
	ok, err := a.Transfer(from, to, amount)
	if err != nil {
		return eris.Wrapf(ErrTransferFailed, "transfer %s to %s: %v", amount, to.Hex(), err)
	}
	if !ok {
		return eris.Wrapf(ErrTransferFailed, "transfer %s to %s returned false", amount, to.Hex())
	}
	return nil
}

// SafeTransferFrom is SafeTransfer for allowance-based pulls.
func SafeTransferFrom(a Asset, spender, from, to common.Address, amount math.Int) error {
	ok, err := a.TransferFrom(spender, from, to, amount)
	if err != nil {
		return eris.Wrapf(ErrTransferFailed, "transferFrom %s from %s: %v", amount, from.Hex(), err)
	}
	if !ok {
		return eris.Wrapf(ErrTransferFailed, "transferFrom %s from %s returned false", amount, from.Hex())
	}
	return nil
}
