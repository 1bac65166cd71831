package ama

import (
	"fmt"
	"math/big"
	"time"

	"amachain/core/events"
	"amachain/core/types"
)

// Default refund gates, matching the production deployment configuration.
const (
	DefaultFundTimeout   = 48 * 3600
	DefaultAnswerTimeout = 48 * 3600
)

// Ledger is the fungible token surface the engine consumes. TransferFrom pulls
// approved funds from a backer into the marketplace vault; Transfer pays out
// of the vault. Both either fully succeed or fail with no partial movement.
type Ledger interface {
	TransferFrom(from, to [20]byte, amount *big.Int) error
	Transfer(to [20]byte, amount *big.Int) error
	BalanceOf(account [20]byte) (*big.Int, error)
}

type engineState interface {
	QuestionGet(id uint64) (*Question, bool, error)
	QuestionHas(id uint64) (bool, error)
	QuestionPut(question *Question) error
	PriceGet(answerer [20]byte) (*big.Int, bool, error)
}

// Engine owns every state transition of the question ledger: funding,
// answering, listener revenue accumulation, pull-based withdrawals, and
// timeout-gated refunds. Operations execute serially per question; each call
// either completes with its token movement or leaves state untouched.
type Engine struct {
	state         engineState
	ledger        Ledger
	emitter       events.Emitter
	nowFn         func() int64
	vault         [20]byte
	fundTimeout   int64
	answerTimeout int64
}

// NewEngine constructs a question engine with default timeouts and a no-op
// emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter:       events.NoopEmitter{},
		nowFn:         func() int64 { return time.Now().Unix() },
		fundTimeout:   DefaultFundTimeout,
		answerTimeout: DefaultAnswerTimeout,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the fungible token ledger the engine moves value with.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetVault configures the account that holds pooled stakes and listener
// revenue until they are claimed.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetTimeouts configures the refund gates in seconds. Values at or below zero
// keep the current setting.
func (e *Engine) SetTimeouts(fundTimeout, answerTimeout int64) {
	if fundTimeout > 0 {
		e.fundTimeout = fundTimeout
	}
	if answerTimeout > 0 {
		e.answerTimeout = answerTimeout
	}
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) loadQuestion(id uint64) (*Question, error) {
	question, ok, err := e.state.QuestionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || question == nil {
		return nil, ErrUnknownQuestion
	}
	return question, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) pull(from [20]byte, amount *big.Int) error {
	if err := e.ledger.TransferFrom(from, e.vault, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

func (e *Engine) payout(to [20]byte, amount *big.Int) error {
	if err := e.ledger.Transfer(to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// Ask creates a question directed at the supplied answerer, snapshotting the
// answerer's current price as the funding goal and crediting the caller with
// the initial contribution. Contributions beyond the goal are capped: only the
// accepted amount is pulled from the caller.
func (e *Engine) Ask(caller [20]byte, id uint64, answerer [20]byte, initialStake *big.Int) (*Question, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if initialStake == nil || initialStake.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	price, ok, err := e.state.PriceGet(answerer)
	if err != nil {
		return nil, err
	}
	if !ok || price == nil || price.Sign() <= 0 {
		return nil, ErrAnswererNotReady
	}
	if exists, err := e.state.QuestionHas(id); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateQuestion
	}
	goal := cloneBigInt(price)
	accepted := cloneBigInt(initialStake)
	if accepted.Cmp(goal) > 0 {
		accepted.Set(goal)
	}
	if err := e.pull(caller, accepted); err != nil {
		return nil, err
	}
	now := e.now()
	question := &Question{
		ID:          id,
		Questioner:  caller,
		Answerer:    answerer,
		FundingGoal: goal,
		TotalStaked: accepted,
		RevenuePool: big.NewInt(0),
		CreatedAt:   now,
		Status:      QuestionFunding,
		Stakes: []*StakeEntry{{
			Staker:    caller,
			Amount:    cloneBigInt(accepted),
			Withdrawn: big.NewInt(0),
		}},
	}
	if question.Funded() {
		question.FundingCompletedAt = now
	}
	if err := e.state.QuestionPut(question); err != nil {
		return nil, err
	}
	e.emit(QuestionAskedEvent(question, caller, accepted))
	return question.Clone(), nil
}

// Stake contributes towards an open question's funding goal. The accepted
// amount is capped at the remaining capacity and exactly that much is pulled
// from the caller; once the goal is met further stakes are rejected.
func (e *Engine) Stake(caller [20]byte, id uint64, amount *big.Int) (*Question, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	question, err := e.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	switch question.Status {
	case QuestionAnswered:
		return nil, ErrAlreadyAnswered
	case QuestionRefunded:
		return nil, ErrAlreadyRefunded
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	remaining := new(big.Int).Sub(question.FundingGoal, question.TotalStaked)
	if remaining.Sign() <= 0 {
		return nil, ErrFundingCompleted
	}
	accepted := cloneBigInt(amount)
	if accepted.Cmp(remaining) > 0 {
		accepted.Set(remaining)
	}
	if err := e.pull(caller, accepted); err != nil {
		return nil, err
	}
	entry := question.StakeOf(caller)
	if entry == nil {
		entry = &StakeEntry{Staker: caller, Amount: big.NewInt(0), Withdrawn: big.NewInt(0)}
		question.Stakes = append(question.Stakes, entry)
	}
	entry.Amount = new(big.Int).Add(entry.Amount, accepted)
	question.TotalStaked = new(big.Int).Add(question.TotalStaked, accepted)
	if question.Funded() && question.FundingCompletedAt == 0 {
		question.FundingCompletedAt = e.now()
	}
	if err := e.state.QuestionPut(question); err != nil {
		return nil, err
	}
	e.emit(QuestionStakedEvent(question, caller, accepted))
	return question.Clone(), nil
}

// Answer releases the full funding goal from the vault to the designated
// answerer, unlocks listener access, and establishes the answerer's matching
// revenue-share weight, doubling the distribution denominator from this point
// forward.
func (e *Engine) Answer(caller [20]byte, id uint64) (*Question, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	question, err := e.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	switch question.Status {
	case QuestionAnswered:
		return nil, ErrAlreadyAnswered
	case QuestionRefunded:
		return nil, ErrAlreadyRefunded
	}
	if caller != question.Answerer {
		return nil, ErrNotAnswerer
	}
	if !question.Funded() {
		return nil, ErrFundraisingIncomplete
	}
	if err := e.payout(caller, question.FundingGoal); err != nil {
		return nil, err
	}
	question.Status = QuestionAnswered
	question.AnsweredAt = e.now()
	question.Stakes = append(question.Stakes, &StakeEntry{
		Staker:    question.Answerer,
		Amount:    cloneBigInt(question.FundingGoal),
		Withdrawn: big.NewInt(0),
		Virtual:   true,
	})
	if err := e.state.QuestionPut(question); err != nil {
		return nil, err
	}
	e.emit(QuestionAnsweredEvent(question))
	return question.Clone(), nil
}

// Listen charges the caller for access to an answered question, accumulating
// the payment in the question's revenue pool for backers to claim.
func (e *Engine) Listen(caller [20]byte, id uint64, amount *big.Int) (*Question, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	question, err := e.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	if question.Status == QuestionRefunded {
		return nil, ErrAlreadyRefunded
	}
	if question.Status != QuestionAnswered {
		return nil, ErrNotAnswered
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrMustPay
	}
	if err := e.pull(caller, amount); err != nil {
		return nil, err
	}
	question.RevenuePool = new(big.Int).Add(question.RevenuePool, amount)
	if err := e.state.QuestionPut(question); err != nil {
		return nil, err
	}
	e.emit(QuestionListenedEvent(question, caller, amount))
	return question.Clone(), nil
}

// Withdraw pays the caller the unclaimed increment of their revenue share:
// floor(weight * revenuePool / totalWeight) minus what they already withdrew.
// The cumulative withdrawn counter advances with the payout, so repeated calls
// only ever claim newly accrued revenue.
func (e *Engine) Withdraw(caller [20]byte, id uint64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	question, err := e.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	if question.Status == QuestionRefunded {
		return nil, ErrAlreadyRefunded
	}
	var entries []*StakeEntry
	for _, entry := range question.Stakes {
		if entry != nil && entry.Staker == caller {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, ErrNotStaker
	}
	totalWeight := question.TotalWeight()
	due := big.NewInt(0)
	for _, entry := range entries {
		entitlement := new(big.Int).Mul(entry.Amount, question.RevenuePool)
		entitlement.Div(entitlement, totalWeight)
		delta := new(big.Int).Sub(entitlement, entry.Withdrawn)
		if delta.Sign() > 0 {
			entry.Withdrawn = new(big.Int).Add(entry.Withdrawn, delta)
			due.Add(due, delta)
		}
	}
	if due.Sign() == 0 {
		return nil, ErrInsufficientBalance
	}
	if err := e.payout(caller, due); err != nil {
		return nil, err
	}
	if err := e.state.QuestionPut(question); err != nil {
		return nil, err
	}
	e.emit(QuestionWithdrawnEvent(question, caller, due))
	return due, nil
}

// Refund returns every backer's principal from the vault and freezes the
// question. The call is gated by the fund timeout while the goal is unmet and
// by the answer timeout once funding completed without an answer. Any backer
// of record (the questioner included) may trigger it; one successful call
// settles everyone.
func (e *Engine) Refund(caller [20]byte, id uint64) (*Question, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	question, err := e.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	switch question.Status {
	case QuestionAnswered:
		return nil, ErrAlreadyAnswered
	case QuestionRefunded:
		return nil, ErrAlreadyRefunded
	}
	if caller != question.Questioner && question.StakeOf(caller) == nil {
		return nil, ErrNotStaker
	}
	now := e.now()
	if !question.Funded() {
		if now-question.CreatedAt < e.fundTimeout {
			return nil, ErrFundTimeoutNotElapsed
		}
	} else if now-question.FundingCompletedAt < e.answerTimeout {
		return nil, ErrAnswerTimeoutNotElapsed
	}
	// All principal still sits in the vault; verify before the first payout so
	// the settlement cannot strand part-way.
	balance, err := e.ledger.BalanceOf(e.vault)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if balance.Cmp(question.TotalStaked) < 0 {
		return nil, fmt.Errorf("%w: vault underfunded", ErrTransferFailed)
	}
	for _, entry := range question.Stakes {
		if entry == nil || entry.Virtual || entry.Amount.Sign() == 0 {
			continue
		}
		if err := e.payout(entry.Staker, entry.Amount); err != nil {
			return nil, err
		}
	}
	question.Status = QuestionRefunded
	if err := e.state.QuestionPut(question); err != nil {
		return nil, err
	}
	e.emit(QuestionRefundedEvent(question, caller))
	return question.Clone(), nil
}

// Get returns a copy of the question record without mutating state.
func (e *Engine) Get(id uint64) (*Question, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	question, err := e.loadQuestion(id)
	if err != nil {
		return nil, err
	}
	return question.Clone(), nil
}
