package state

import (
	"encoding/binary"
	"errors"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"amachain/storage"
)

var (
	accountPrefix  = []byte("ama-state/account/")
	questionPrefix = []byte("ama-state/question/")
	pricePrefix    = []byte("ama-state/price/")
)

// Manager persists marketplace state (accounts, questions, prices) over a
// generic key-value backend. Records are RLP encoded under keccak-hashed,
// prefix-namespaced keys. A single mutex serialises access; the execution
// model processes one operation at a time per question, and the manager is the
// shared chokepoint that enforces it.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager constructs a state manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

func questionKey(id uint64) []byte {
	buf := make([]byte, len(questionPrefix)+8)
	copy(buf, questionPrefix)
	binary.BigEndian.PutUint64(buf[len(questionPrefix):], id)
	return ethcrypto.Keccak256(buf)
}

func priceKey(answerer [20]byte) []byte {
	buf := make([]byte, len(pricePrefix)+len(answerer))
	copy(buf, pricePrefix)
	copy(buf[len(pricePrefix):], answerer[:])
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}
