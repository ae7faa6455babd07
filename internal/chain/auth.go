package chain

import (
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rotisserie/eris"
)

var (
	ErrUnauthorized = eris.New("caller lacks permission")
	ErrReentrant    = eris.New("reentrant call")
)

// Permission names a privileged operation.
type Permission string

const (
	PermissionSetAgentChecker  Permission = "SET_AGENT_CHECKER"
	PermissionRecoverLedger    Permission = "RECOVER_LEDGER"
	PermissionCheckpointToken  Permission = "CHECKPOINT_TOKEN"
	PermissionToggleCheckpoint Permission = "TOGGLE_CHECKPOINT_TOKEN"
	PermissionKill             Permission = "KILL_DISTRIBUTOR"
	PermissionRecoverFees      Permission = "RECOVER_DISTRIBUTOR"
)

// Permissions lists every privileged operation.
var Permissions = []Permission{
	PermissionSetAgentChecker,
	PermissionRecoverLedger,
	PermissionCheckpointToken,
	PermissionToggleCheckpoint,
	PermissionKill,
	PermissionRecoverFees,
}

// Authorizer decides whether caller may perform op.
type Authorizer interface {
	Authorized(op Permission, caller common.Address) bool
}

// Require returns ErrUnauthorized unless auth grants op to caller.
func Require(auth Authorizer, op Permission, caller common.Address) error {
	if auth == nil || !auth.Authorized(op, caller) {
		return eris.Wrapf(ErrUnauthorized, "%s for %s", op, caller.Hex())
	}
	return nil
}

// ACL is an in-memory Authorizer.
type ACL struct {
	mu     sync.RWMutex
	grants map[Permission]map[common.Address]bool
}

func NewACL() *ACL {
	return &ACL{grants: make(map[Permission]map[common.Address]bool)}
}

func (a *ACL) Grant(op Permission, who common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.grants[op] == nil {
		a.grants[op] = make(map[common.Address]bool)
	}
	a.grants[op][who] = true
}

func (a *ACL) Revoke(op Permission, who common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.grants[op], who)
}

func (a *ACL) Authorized(op Permission, caller common.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.grants[op][caller]
}

// AgentChecker vets non-human callers.
type AgentChecker interface {
	Check(addr common.Address) bool
}

// AgentList is an AgentChecker backed by a fixed allow list.
type AgentList map[common.Address]bool

func (l AgentList) Check(addr common.Address) bool {
	return l[addr]
}

// Guard rejects re-entry into a call that is still in progress.
type Guard struct {
	entered atomic.Bool
}

func (g *Guard) Enter() error {
	if !g.entered.CompareAndSwap(false, true) {
		return ErrReentrant
	}
	return nil
}

func (g *Guard) Exit() {
	g.entered.Store(false)
}
