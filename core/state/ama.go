package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"amachain/native/ama"
)

type storedStake struct {
	Staker    [20]byte
	Amount    *big.Int
	Withdrawn *big.Int
	Virtual   bool
}

// Timestamps are carried as big integers because RLP has no signed encoding.
type storedQuestion struct {
	ID                 uint64
	Questioner         [20]byte
	Answerer           [20]byte
	FundingGoal        *big.Int
	TotalStaked        *big.Int
	RevenuePool        *big.Int
	CreatedAt          *big.Int
	FundingCompletedAt *big.Int
	AnsweredAt         *big.Int
	Status             uint8
	Stakes             []storedStake
}

func newStoredQuestion(q *ama.Question) *storedQuestion {
	if q == nil {
		return nil
	}
	clone := q.Clone()
	stored := &storedQuestion{
		ID:                 clone.ID,
		Questioner:         clone.Questioner,
		Answerer:           clone.Answerer,
		FundingGoal:        clone.FundingGoal,
		TotalStaked:        clone.TotalStaked,
		RevenuePool:        clone.RevenuePool,
		CreatedAt:          big.NewInt(clone.CreatedAt),
		FundingCompletedAt: big.NewInt(clone.FundingCompletedAt),
		AnsweredAt:         big.NewInt(clone.AnsweredAt),
		Status:             uint8(clone.Status),
	}
	for _, entry := range clone.Stakes {
		if entry == nil {
			continue
		}
		stored.Stakes = append(stored.Stakes, storedStake{
			Staker:    entry.Staker,
			Amount:    entry.Amount,
			Withdrawn: entry.Withdrawn,
			Virtual:   entry.Virtual,
		})
	}
	return stored
}

func (s *storedQuestion) toQuestion() (*ama.Question, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil question record")
	}
	out := &ama.Question{
		ID:          s.ID,
		Questioner:  s.Questioner,
		Answerer:    s.Answerer,
		FundingGoal: big.NewInt(0),
		TotalStaked: big.NewInt(0),
		RevenuePool: big.NewInt(0),
		Status:      ama.QuestionStatus(s.Status),
	}
	if s.FundingGoal != nil {
		out.FundingGoal = new(big.Int).Set(s.FundingGoal)
	}
	if s.TotalStaked != nil {
		out.TotalStaked = new(big.Int).Set(s.TotalStaked)
	}
	if s.RevenuePool != nil {
		out.RevenuePool = new(big.Int).Set(s.RevenuePool)
	}
	if s.CreatedAt != nil {
		out.CreatedAt = s.CreatedAt.Int64()
	}
	if s.FundingCompletedAt != nil {
		out.FundingCompletedAt = s.FundingCompletedAt.Int64()
	}
	if s.AnsweredAt != nil {
		out.AnsweredAt = s.AnsweredAt.Int64()
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("state: invalid question status %d", s.Status)
	}
	for _, entry := range s.Stakes {
		amount := big.NewInt(0)
		if entry.Amount != nil {
			amount = new(big.Int).Set(entry.Amount)
		}
		withdrawn := big.NewInt(0)
		if entry.Withdrawn != nil {
			withdrawn = new(big.Int).Set(entry.Withdrawn)
		}
		out.Stakes = append(out.Stakes, &ama.StakeEntry{
			Staker:    entry.Staker,
			Amount:    amount,
			Withdrawn: withdrawn,
			Virtual:   entry.Virtual,
		})
	}
	return out, nil
}

// QuestionHas reports whether a record exists for the id without decoding it.
func (m *Manager) QuestionHas(id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Has(questionKey(id))
}

// QuestionGet loads the question record for the id.
func (m *Manager) QuestionGet(id uint64) (*ama.Question, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok, err := m.get(questionKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	stored := new(storedQuestion)
	if err := rlp.DecodeBytes(raw, stored); err != nil {
		return nil, false, fmt.Errorf("state: decode question: %w", err)
	}
	question, err := stored.toQuestion()
	if err != nil {
		return nil, false, err
	}
	return question, true, nil
}

// QuestionPut persists the question record. Records are never deleted;
// terminal questions stay on disk so their ids can never be reused.
func (m *Manager) QuestionPut(question *ama.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := newStoredQuestion(question)
	if stored == nil {
		return fmt.Errorf("state: nil question")
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return fmt.Errorf("state: encode question: %w", err)
	}
	return m.db.Put(questionKey(stored.ID), encoded)
}

// PriceGet loads the answerer's advertised price.
func (m *Manager) PriceGet(answerer [20]byte) (*big.Int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok, err := m.get(priceKey(answerer))
	if err != nil || !ok {
		return nil, false, err
	}
	price := new(big.Int)
	if err := rlp.DecodeBytes(raw, price); err != nil {
		return nil, false, fmt.Errorf("state: decode price: %w", err)
	}
	return price, true, nil
}

// PricePut persists the answerer's advertised price.
func (m *Manager) PricePut(answerer [20]byte, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: price must be positive")
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return fmt.Errorf("state: encode price: %w", err)
	}
	return m.db.Put(priceKey(answerer), encoded)
}
