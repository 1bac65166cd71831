package token

import (
	"math/big"

	"amachain/core/events"
	"amachain/core/types"
	"amachain/crypto"
)

const (
	// EventTypeMinted is emitted when the owner issues new supply.
	EventTypeMinted = "token.minted"
	// EventTypeTransferred is emitted on every successful balance movement.
	EventTypeTransferred = "token.transferred"
	// EventTypeApproved is emitted when an allowance is granted or cleared.
	EventTypeApproved = "token.approved"
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

// MintedEvent returns the structured payload for supply issuance.
func MintedEvent(to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"to":     bech32Addr(to),
			"amount": formatAmount(amount),
		},
	}
}

// TransferredEvent returns the structured payload for a balance movement.
func TransferredEvent(from, to [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"from":   bech32Addr(from),
			"to":     bech32Addr(to),
			"amount": formatAmount(amount),
		},
	}
}

// ApprovedEvent returns the structured payload for an allowance change.
func ApprovedEvent(owner, spender [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeApproved,
		Attributes: map[string]string{
			"owner":   bech32Addr(owner),
			"spender": bech32Addr(spender),
			"amount":  formatAmount(amount),
		},
	}
}
