package ama

import "errors"

var (
	// ErrAnswererNotReady rejects asks against an answerer with no advertised price.
	ErrAnswererNotReady = errors.New("ama: answerer not ready")
	// ErrDuplicateQuestion rejects reuse of a question id, including ids of
	// refunded questions.
	ErrDuplicateQuestion = errors.New("ama: invalid question id")
	// ErrUnknownQuestion is returned when no record exists for the id.
	ErrUnknownQuestion = errors.New("ama: question not found")
	// ErrInvalidAmount rejects zero or negative contribution amounts.
	ErrInvalidAmount = errors.New("ama: amount must be positive")
	// ErrFundingCompleted rejects stakes once the goal is exactly met.
	ErrFundingCompleted = errors.New("ama: fundraising completed")
	// ErrFundraisingIncomplete rejects an answer before the goal is met.
	ErrFundraisingIncomplete = errors.New("ama: fundraising has not been reached")
	// ErrNotAnswerer rejects answer calls from anyone but the designated answerer.
	ErrNotAnswerer = errors.New("ama: only answerer can answer")
	// ErrAlreadyAnswered rejects mutations of an answered question.
	ErrAlreadyAnswered = errors.New("ama: already answered")
	// ErrAlreadyRefunded rejects mutations of a refunded question.
	ErrAlreadyRefunded = errors.New("ama: already refunded")
	// ErrNotAnswered rejects listens before the answer has been published.
	ErrNotAnswered = errors.New("ama: not answered")
	// ErrMustPay rejects zero-amount listens.
	ErrMustPay = errors.New("ama: listener should pay")
	// ErrNotStaker rejects withdrawals from addresses with no share weight.
	ErrNotStaker = errors.New("ama: not staker")
	// ErrInsufficientBalance rejects withdrawals with nothing newly due.
	ErrInsufficientBalance = errors.New("ama: insufficient balance")
	// ErrFundTimeoutNotElapsed gates refunds of under-funded questions.
	ErrFundTimeoutNotElapsed = errors.New("ama: please wait until fund timeout")
	// ErrAnswerTimeoutNotElapsed gates refunds of funded but unanswered questions.
	ErrAnswerTimeoutNotElapsed = errors.New("ama: please wait until answer timeout")
	// ErrTransferFailed surfaces a token ledger rejection verbatim; the engine
	// never retries.
	ErrTransferFailed = errors.New("ama: token transfer failed")

	errNilState  = errors.New("ama engine: state not configured")
	errNilLedger = errors.New("ama engine: token ledger not configured")
)
