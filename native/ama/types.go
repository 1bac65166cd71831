package ama

import "math/big"

// QuestionStatus represents the lifecycle states of a question. Funding is the
// only mutable phase; Answered and Refunded are terminal.
type QuestionStatus uint8

const (
	QuestionFunding QuestionStatus = iota
	QuestionAnswered
	QuestionRefunded
)

// Valid reports whether the status value is within the supported range.
func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionFunding, QuestionAnswered, QuestionRefunded:
		return true
	default:
		return false
	}
}

func (s QuestionStatus) String() string {
	switch s {
	case QuestionFunding:
		return "funding"
	case QuestionAnswered:
		return "answered"
	case QuestionRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// StakeEntry records a single backer's position on a question. Virtual marks
// the answerer's revenue-share weight created on answer: it participates in
// withdrawals but is not principal and is never returned by a refund.
type StakeEntry struct {
	Staker    [20]byte `json:"staker"`
	Amount    *big.Int `json:"amount"`
	Withdrawn *big.Int `json:"withdrawn"`
	Virtual   bool     `json:"virtual,omitempty"`
}

// Clone returns a deep copy of the stake entry.
func (s *StakeEntry) Clone() *StakeEntry {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Amount != nil {
		clone.Amount = new(big.Int).Set(s.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if s.Withdrawn != nil {
		clone.Withdrawn = new(big.Int).Set(s.Withdrawn)
	} else {
		clone.Withdrawn = big.NewInt(0)
	}
	return &clone
}

// Question captures the funding state, backer roster, and revenue accounting
// for a single question. The funding goal is the answerer's price snapshotted
// at ask time; later price changes never touch an open question. Records are
// never deleted, only marked terminal, so question ids stay unique for the
// lifetime of the ledger.
type Question struct {
	ID                 uint64         `json:"id"`
	Questioner         [20]byte       `json:"questioner"`
	Answerer           [20]byte       `json:"answerer"`
	FundingGoal        *big.Int       `json:"fundingGoal"`
	TotalStaked        *big.Int       `json:"totalStaked"`
	RevenuePool        *big.Int       `json:"revenuePool"`
	CreatedAt          int64          `json:"createdAt"`
	FundingCompletedAt int64          `json:"fundingCompletedAt,omitempty"`
	AnsweredAt         int64          `json:"answeredAt,omitempty"`
	Status             QuestionStatus `json:"status"`
	Stakes             []*StakeEntry  `json:"stakes"`
}

// Clone returns a deep copy of the question so callers can safely mutate the
// copy without affecting the stored instance.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	clone := *q
	if q.FundingGoal != nil {
		clone.FundingGoal = new(big.Int).Set(q.FundingGoal)
	} else {
		clone.FundingGoal = big.NewInt(0)
	}
	if q.TotalStaked != nil {
		clone.TotalStaked = new(big.Int).Set(q.TotalStaked)
	} else {
		clone.TotalStaked = big.NewInt(0)
	}
	if q.RevenuePool != nil {
		clone.RevenuePool = new(big.Int).Set(q.RevenuePool)
	} else {
		clone.RevenuePool = big.NewInt(0)
	}
	if q.Stakes != nil {
		clone.Stakes = make([]*StakeEntry, len(q.Stakes))
		for i, entry := range q.Stakes {
			clone.Stakes[i] = entry.Clone()
		}
	}
	return &clone
}

// StakeOf returns the entry for the supplied backer, or nil when the address
// has no position on the question.
func (q *Question) StakeOf(staker [20]byte) *StakeEntry {
	if q == nil {
		return nil
	}
	for _, entry := range q.Stakes {
		if entry != nil && entry.Staker == staker {
			return entry
		}
	}
	return nil
}

// Funded reports whether the funding goal has been fully met.
func (q *Question) Funded() bool {
	if q == nil || q.TotalStaked == nil || q.FundingGoal == nil {
		return false
	}
	return q.TotalStaked.Cmp(q.FundingGoal) >= 0
}

// TotalWeight returns the revenue-share denominator: the funding goal while
// unanswered, twice the goal once the answerer's matching weight exists.
func (q *Question) TotalWeight() *big.Int {
	if q == nil || q.FundingGoal == nil {
		return big.NewInt(0)
	}
	weight := new(big.Int).Set(q.FundingGoal)
	if q.Status == QuestionAnswered {
		weight.Add(weight, q.FundingGoal)
	}
	return weight
}
