package accounts

import (
	"fmt"
	"strings"
	"sync"
)

// Registry holds the watched accounts in insertion order.
type Registry struct {
	mu        sync.RWMutex
	accounts  []Account
	byAddress map[string]int
}

func NewRegistry(accounts []Account) (*Registry, error) {
	r := &Registry{byAddress: map[string]int{}}
	for _, a := range accounts {
		if _, err := r.Add(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add normalizes and stores a. Unnamed accounts get "Account N".
func (r *Registry) Add(a Account) (Account, error) {
	addr, err := NormalizeAddress(a.Address)
	if err != nil {
		return Account{}, err
	}
	kind, err := ParseKind(string(a.Kind))
	if err != nil {
		return Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAddress[addr]; ok {
		return Account{}, fmt.Errorf("%w: %s", ErrDuplicate, addr)
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = fmt.Sprintf("Account %d", len(r.accounts)+1)
	}

	out := Account{Name: name, Address: addr, Kind: kind}
	r.byAddress[addr] = len(r.accounts)
	r.accounts = append(r.accounts, out)
	return out, nil
}

func (r *Registry) Get(address string) (Account, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byAddress[addr]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrNotFound, addr)
	}
	return r.accounts[i], nil
}

func (r *Registry) List() []Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}
