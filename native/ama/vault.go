package ama

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// ModuleVault returns the deterministic address that escrows pooled stakes and
// listener revenue. No key exists for it; funds only leave through engine
// payouts.
func ModuleVault() [20]byte {
	hash := ethcrypto.Keccak256([]byte("ama/module-vault"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}
