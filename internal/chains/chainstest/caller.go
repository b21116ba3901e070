// Package chainstest provides an in-memory chains.Caller for tests.
package chainstest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/quantum-balances/internal/chains"
)

type Token struct {
	Symbol   string
	Name     string
	Decimals uint8
	Balances map[common.Address]*big.Int
}

// Caller answers BalanceAt from Native and ERC-20 calls from Tokens.
// Calls to unknown contracts return empty data, like a call to an EOA.
type Caller struct {
	mu     sync.Mutex
	Native map[common.Address]*big.Int
	Tokens map[common.Address]*Token
	// Fail makes calls return this error. FailTimes > 0 limits it to that
	// many calls.
	Fail      error
	FailTimes int
	Calls     int
	Closed    bool
}

func NewCaller() *Caller {
	return &Caller{
		Native: map[common.Address]*big.Int{},
		Tokens: map[common.Address]*Token{},
	}
}

func (c *Caller) SetNative(owner common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Native[owner] = wei
}

func (c *Caller) AddToken(addr common.Address, tok *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok.Balances == nil {
		tok.Balances = map[common.Address]*big.Int{}
	}
	c.Tokens[addr] = tok
}

func (c *Caller) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls
}

func (c *Caller) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if err := c.failLocked(); err != nil {
		return nil, err
	}
	if v, ok := c.Native[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (c *Caller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	if err := c.failLocked(); err != nil {
		return nil, err
	}
	if msg.To == nil {
		return nil, errors.New("chainstest: call without target")
	}
	tok, ok := c.Tokens[*msg.To]
	if !ok {
		return nil, nil
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("chainstest: short call data")
	}

	method, err := chains.ERC20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "balanceOf":
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		owner := args[0].(common.Address)
		bal, ok := tok.Balances[owner]
		if !ok {
			bal = big.NewInt(0)
		}
		return method.Outputs.Pack(bal)
	case "symbol":
		return method.Outputs.Pack(tok.Symbol)
	case "name":
		if tok.Name == "" {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(tok.Name)
	case "decimals":
		return method.Outputs.Pack(tok.Decimals)
	default:
		return nil, fmt.Errorf("chainstest: unexpected method %s", method.Name)
	}
}

func (c *Caller) failLocked() error {
	if c.Fail == nil {
		return nil
	}
	err := c.Fail
	if c.FailTimes > 0 {
		c.FailTimes--
		if c.FailTimes == 0 {
			c.Fail = nil
		}
	}
	return err
}

func (c *Caller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
}

// Dial returns a chains.DialFunc that serves callers by RPC URL.
func Dial(byURL map[string]*Caller) chains.DialFunc {
	return func(_ context.Context, rpcURL string) (chains.Caller, error) {
		c, ok := byURL[rpcURL]
		if !ok {
			return nil, fmt.Errorf("chainstest: no caller for %s", rpcURL)
		}
		return c, nil
	}
}
