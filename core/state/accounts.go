package state

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"amachain/core/types"
)

type storedAllowance struct {
	Spender [20]byte
	Amount  *big.Int
}

type storedAccount struct {
	Nonce      uint64
	Balance    *big.Int
	Allowances []storedAllowance
}

func newStoredAccount(acc *types.Account) *storedAccount {
	if acc == nil {
		return nil
	}
	balance := big.NewInt(0)
	if acc.Balance != nil {
		balance = new(big.Int).Set(acc.Balance)
	}
	stored := &storedAccount{Nonce: acc.Nonce, Balance: balance}
	if len(acc.Allowances) > 0 {
		keys := make([]string, 0, len(acc.Allowances))
		for spender := range acc.Allowances {
			keys = append(keys, spender)
		}
		// Deterministic encoding regardless of map iteration order.
		sort.Strings(keys)
		for _, key := range keys {
			decoded, err := hex.DecodeString(key)
			if err != nil || len(decoded) != 20 {
				continue
			}
			var spender [20]byte
			copy(spender[:], decoded)
			amount := big.NewInt(0)
			if acc.Allowances[key] != nil {
				amount = new(big.Int).Set(acc.Allowances[key])
			}
			stored.Allowances = append(stored.Allowances, storedAllowance{Spender: spender, Amount: amount})
		}
	}
	return stored
}

func (s *storedAccount) toAccount() *types.Account {
	if s == nil {
		return nil
	}
	out := &types.Account{Nonce: s.Nonce, Balance: big.NewInt(0)}
	if s.Balance != nil {
		out.Balance = new(big.Int).Set(s.Balance)
	}
	if len(s.Allowances) > 0 {
		out.Allowances = make(map[string]*big.Int, len(s.Allowances))
		for _, entry := range s.Allowances {
			amount := big.NewInt(0)
			if entry.Amount != nil {
				amount = new(big.Int).Set(entry.Amount)
			}
			out.Allowances[hex.EncodeToString(entry.Spender[:])] = amount
		}
	}
	return out
}

// GetAccount returns the stored account for the address, or nil when the
// address has never been touched.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok, err := m.get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(raw, stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return stored.toAccount(), nil
}

// PutAccount persists the account under the address key.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := newStoredAccount(account)
	if stored == nil {
		return fmt.Errorf("state: nil account")
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountKey(addr), encoded)
}
