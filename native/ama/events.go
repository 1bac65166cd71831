package ama

import (
	"math/big"
	"strconv"

	"amachain/core/events"
	"amachain/core/types"
	"amachain/crypto"
)

const (
	// EventTypeQuestionAsked is emitted when a questioner opens a question.
	EventTypeQuestionAsked = "ama.question.asked"
	// EventTypeQuestionStaked is emitted when a backer contributes funding.
	EventTypeQuestionStaked = "ama.question.staked"
	// EventTypeQuestionAnswered is emitted when the answerer claims the goal.
	EventTypeQuestionAnswered = "ama.question.answered"
	// EventTypeQuestionListened is emitted when a listener pays for access.
	EventTypeQuestionListened = "ama.question.listened"
	// EventTypeQuestionWithdrawn is emitted when a backer claims revenue.
	EventTypeQuestionWithdrawn = "ama.question.withdrawn"
	// EventTypeQuestionRefunded is emitted when a question settles by refund.
	EventTypeQuestionRefunded = "ama.question.refunded"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func bech32Addr(addr [20]byte) string {
	return crypto.NewAddress(crypto.AMAPrefix, addr[:]).String()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func questionIDString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// QuestionAskedEvent returns the structured payload announcing a new question.
func QuestionAskedEvent(q *Question, caller [20]byte, accepted *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeQuestionAsked,
		Attributes: map[string]string{
			"questionId":  questionIDString(q.ID),
			"questioner":  bech32Addr(caller),
			"answerer":    bech32Addr(q.Answerer),
			"fundingGoal": formatAmount(q.FundingGoal),
			"accepted":    formatAmount(accepted),
		},
	}
}

// QuestionStakedEvent returns the structured payload for a funding contribution.
func QuestionStakedEvent(q *Question, staker [20]byte, accepted *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeQuestionStaked,
		Attributes: map[string]string{
			"questionId":  questionIDString(q.ID),
			"staker":      bech32Addr(staker),
			"accepted":    formatAmount(accepted),
			"totalStaked": formatAmount(q.TotalStaked),
		},
	}
}

// QuestionAnsweredEvent returns the structured payload for the answer payout.
func QuestionAnsweredEvent(q *Question) *types.Event {
	return &types.Event{
		Type: EventTypeQuestionAnswered,
		Attributes: map[string]string{
			"questionId": questionIDString(q.ID),
			"answerer":   bech32Addr(q.Answerer),
			"payout":     formatAmount(q.FundingGoal),
		},
	}
}

// QuestionListenedEvent returns the structured payload for a listener payment.
func QuestionListenedEvent(q *Question, listener [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeQuestionListened,
		Attributes: map[string]string{
			"questionId":  questionIDString(q.ID),
			"listener":    bech32Addr(listener),
			"amount":      formatAmount(amount),
			"revenuePool": formatAmount(q.RevenuePool),
		},
	}
}

// QuestionWithdrawnEvent returns the structured payload for a revenue claim.
func QuestionWithdrawnEvent(q *Question, staker [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeQuestionWithdrawn,
		Attributes: map[string]string{
			"questionId": questionIDString(q.ID),
			"staker":     bech32Addr(staker),
			"amount":     formatAmount(amount),
		},
	}
}

// QuestionRefundedEvent returns the structured payload for a refund settlement.
func QuestionRefundedEvent(q *Question, caller [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeQuestionRefunded,
		Attributes: map[string]string{
			"questionId": questionIDString(q.ID),
			"caller":     bech32Addr(caller),
			"returned":   formatAmount(q.TotalStaked),
		},
	}
}
