package asset

import (
	"sync"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
)

// Token is an in-memory Asset with balances and allowances.
type Token struct {
	mu         sync.Mutex
	addr       common.Address
	decimals   int
	balances   map[common.Address]math.Int
	allowances map[common.Address]map[common.Address]math.Int

	// Hook, when set, runs before every balance-moving call. Tests use it to
	// simulate callbacks into the caller.
	Hook func()
}

func NewToken(addr common.Address, decimals int) *Token {
	return &Token{
		addr:       addr,
		decimals:   decimals,
		balances:   make(map[common.Address]math.Int),
		allowances: make(map[common.Address]map[common.Address]math.Int),
	}
}

func (t *Token) Address() common.Address { return t.addr }
func (t *Token) Decimals() int           { return t.decimals }

func (t *Token) BalanceOf(holder common.Address) (math.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance(holder), nil
}

// Mint credits amount to holder out of thin air.
func (t *Token) Mint(holder common.Address, amount math.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[holder] = t.balance(holder).Add(amount)
}

// Approve lets spender pull up to amount from owner.
func (t *Token) Approve(owner, spender common.Address, amount math.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]math.Int)
	}
	t.allowances[owner][spender] = amount
}

func (t *Token) Transfer(from, to common.Address, amount math.Int) (bool, error) {
	if t.Hook != nil {
		t.Hook()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount), nil
}

func (t *Token) TransferFrom(spender, from, to common.Address, amount math.Int) (bool, error) {
	if t.Hook != nil {
		t.Hook()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount.IsNegative() {
		return false, eris.New("negative amount")
	}
	allowed := t.allowance(from, spender)
	if allowed.LT(amount) {
		return false, nil
	}
	if !t.move(from, to, amount) {
		return false, nil
	}
	if t.allowances[from] == nil {
		t.allowances[from] = make(map[common.Address]math.Int)
	}
	t.allowances[from][spender] = allowed.Sub(amount)
	return true, nil
}

func (t *Token) move(from, to common.Address, amount math.Int) bool {
	if amount.IsNegative() {
		return false
	}
	bal := t.balance(from)
	if bal.LT(amount) {
		return false
	}
	t.balances[from] = bal.Sub(amount)
	t.balances[to] = t.balance(to).Add(amount)
	return true
}

func (t *Token) balance(holder common.Address) math.Int {
	if b, ok := t.balances[holder]; ok {
		return b
	}
	return math.ZeroInt()
}

func (t *Token) allowance(owner, spender common.Address) math.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return a
	}
	return math.ZeroInt()
}

// Holdings is the persisted form of a Token.
type Holdings struct {
	Balances   map[common.Address]math.Int                    `json:"balances"`
	Allowances map[common.Address]map[common.Address]math.Int `json:"allowances"`
}

// Export copies the token's balances and allowances.
func (t *Token) Export() Holdings {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := Holdings{
		Balances:   make(map[common.Address]math.Int, len(t.balances)),
		Allowances: make(map[common.Address]map[common.Address]math.Int, len(t.allowances)),
	}
	for k, v := range t.balances {
		h.Balances[k] = v
	}
	for owner, m := range t.allowances {
		cp := make(map[common.Address]math.Int, len(m))
		for spender, v := range m {
			cp[spender] = v
		}
		h.Allowances[owner] = cp
	}
	return h
}

// Restore replaces the token's balances and allowances.
func (t *Token) Restore(h Holdings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances = make(map[common.Address]math.Int, len(h.Balances))
	for k, v := range h.Balances {
		t.balances[k] = v
	}
	t.allowances = make(map[common.Address]map[common.Address]math.Int, len(h.Allowances))
	for owner, m := range h.Allowances {
		cp := make(map[common.Address]math.Int, len(m))
		for spender, v := range m {
			cp[spender] = v
		}
		t.allowances[owner] = cp
	}
}
