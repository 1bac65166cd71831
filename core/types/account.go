package types

import "math/big"

// Account holds the fungible token position for a single address. Allowances
// map the hex-encoded spender address to the amount that spender may pull via
// TransferFrom.
type Account struct {
	Nonce      uint64              `json:"nonce"`
	Balance    *big.Int            `json:"balance"`
	Allowances map[string]*big.Int `json:"allowances,omitempty"`
}

// Clone returns a deep copy of the account so callers can mutate the copy
// without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	if a.Allowances != nil {
		clone.Allowances = make(map[string]*big.Int, len(a.Allowances))
		for spender, amount := range a.Allowances {
			if amount != nil {
				clone.Allowances[spender] = new(big.Int).Set(amount)
			} else {
				clone.Allowances[spender] = big.NewInt(0)
			}
		}
	}
	return &clone
}
