package assets

import (
	"github.com/quantumauth-io/quantum-balances/internal/constants"
)

type Asset struct {
	Address  string `json:"address"` // checksummed
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

func (a Asset) IsNative() bool {
	return a.Address == constants.NativeAddr
}

type Store struct {
	// network -> address -> asset
	Networks map[string]map[string]Asset `json:"networks"`
	Schema   int                         `json:"schema"`
}

func newStore() Store {
	return Store{
		Schema:   constants.SchemaV1,
		Networks: map[string]map[string]Asset{},
	}
}
