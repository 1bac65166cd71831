package token

import "math/big"

// VaultLedger adapts the token engine to the narrow ledger surface the
// question engine consumes, binding the marketplace vault as both the
// transfer-from spender and the payout source. Backers approve the vault
// address, mirroring how users approve a contract before staking.
type VaultLedger struct {
	engine *Engine
	vault  [20]byte
}

// NewVaultLedger binds the engine to the supplied vault address.
func NewVaultLedger(engine *Engine, vault [20]byte) *VaultLedger {
	return &VaultLedger{engine: engine, vault: vault}
}

// TransferFrom pulls approved funds from the payer into the recipient using
// the vault's allowance.
func (v *VaultLedger) TransferFrom(from, to [20]byte, amount *big.Int) error {
	return v.engine.TransferFrom(v.vault, from, to, amount)
}

// Transfer pays out of the vault.
func (v *VaultLedger) Transfer(to [20]byte, amount *big.Int) error {
	return v.engine.Transfer(v.vault, to, amount)
}

// BalanceOf reports the account balance.
func (v *VaultLedger) BalanceOf(account [20]byte) (*big.Int, error) {
	return v.engine.BalanceOf(account)
}
