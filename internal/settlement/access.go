package settlement

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

// AccessControl guarda as identidades privilegiadas e a flag de pausa.
// A pausa bloqueia apenas novas apostas; callback e recuperação continuam.
type AccessControl struct {
	owner  common.Address
	oracle common.Address
	paused atomic.Bool
}

func NewAccessControl(owner, oracle common.Address) *AccessControl {
	return &AccessControl{owner: owner, oracle: oracle}
}

func (a *AccessControl) Owner() common.Address  { return a.owner }
func (a *AccessControl) Oracle() common.Address { return a.oracle }
func (a *AccessControl) Paused() bool           { return a.paused.Load() }

// endereço zero é o chamador sem credencial; nunca é privilegiado
func (a *AccessControl) RequireOwner(caller common.Address) error {
	if caller == (common.Address{}) || caller != a.owner {
		return ErrNotOwner
	}
	return nil
}

func (a *AccessControl) RequireOracle(caller common.Address) error {
	if caller == (common.Address{}) || caller != a.oracle {
		return ErrNotOracle
	}
	return nil
}

// SetPaused devolve true quando a flag de fato mudou
func (a *AccessControl) SetPaused(caller common.Address, paused bool) (bool, error) {
	if err := a.RequireOwner(caller); err != nil {
		return false, err
	}
	return a.paused.CompareAndSwap(!paused, paused), nil
}
