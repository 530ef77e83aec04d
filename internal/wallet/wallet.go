package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoAccounts is returned when no usable private key was configured.
var ErrNoAccounts = errors.New("no private keys configured")

// Intner is the subset of *rand.Rand used for account selection.
type Intner interface {
	Intn(n int) int
}

// Account is a signing identity derived from a private key.
type Account struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// ParsePrivateKey builds an account from a hex key, with or without 0x.
func ParsePrivateKey(raw string) (*Account, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, err
	}
	return &Account{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}, nil
}

// Transactor returns signing options bound to ctx.
func (a *Account) Transactor(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(a.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor for %s: %w", a.Address.Hex(), err)
	}
	opts.Context = ctx
	return opts, nil
}

func (a *Account) String() string {
	return a.Address.Hex()
}

// Pool holds the configured accounts in key-index order.
type Pool struct {
	accounts []*Account
}

// NewPool parses keys, skipping blank entries. A pool needs at least one account.
func NewPool(keys []string) (*Pool, error) {
	accounts := make([]*Account, 0, len(keys))
	for i, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		account, err := ParsePrivateKey(key)
		if err != nil {
			// never echo key material
			return nil, fmt.Errorf("private key #%d: invalid hex key", i+1)
		}
		accounts = append(accounts, account)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return &Pool{accounts: accounts}, nil
}

// Len returns the number of accounts.
func (p *Pool) Len() int {
	return len(p.accounts)
}

// Accounts returns the accounts in configuration order.
func (p *Pool) Accounts() []*Account {
	out := make([]*Account, len(p.accounts))
	copy(out, p.accounts)
	return out
}

// Pick selects one account uniformly at random.
func (p *Pool) Pick(r Intner) *Account {
	return p.accounts[r.Intn(len(p.accounts))]
}
