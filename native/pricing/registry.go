package pricing

import (
	"errors"
	"math/big"

	"amachain/core/events"
	"amachain/core/types"
	"amachain/crypto"
)

var (
	// ErrInvalidPrice rejects zero or negative prices; zero is the "not ready"
	// sentinel and cannot be advertised explicitly.
	ErrInvalidPrice = errors.New("pricing: price must be positive")

	errNilState = errors.New("pricing registry: state not configured")
)

// EventTypePriceSet is emitted whenever an answerer updates their price.
const EventTypePriceSet = "pricing.price.set"

type registryState interface {
	PriceGet(answerer [20]byte) (*big.Int, bool, error)
	PricePut(answerer [20]byte, amount *big.Int) error
}

// Registry maintains the per-answerer advertised price: the funding goal any
// new question directed at that answerer snapshots. Answerers mutate only
// their own entry; entries are never deleted.
type Registry struct {
	state   registryState
	emitter events.Emitter
}

// NewRegistry constructs a pricing registry with a no-op emitter.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter used by the registry. Passing nil
// resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPrice advertises the caller's price for answering future questions.
// Existing questions keep the goal snapshotted at ask time.
func (r *Registry) SetPrice(caller [20]byte, amount *big.Int) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if err := r.state.PricePut(caller, new(big.Int).Set(amount)); err != nil {
		return err
	}
	if r.emitter != nil {
		r.emitter.Emit(priceSetEvent{evt: &types.Event{
			Type: EventTypePriceSet,
			Attributes: map[string]string{
				"answerer": crypto.NewAddress(crypto.AMAPrefix, caller[:]).String(),
				"price":    amount.String(),
			},
		}})
	}
	return nil
}

// GetPrice returns the answerer's advertised price. The boolean is false when
// the answerer has never set one.
func (r *Registry) GetPrice(answerer [20]byte) (*big.Int, bool, error) {
	if r == nil || r.state == nil {
		return nil, false, errNilState
	}
	price, ok, err := r.state.PriceGet(answerer)
	if err != nil {
		return nil, false, err
	}
	if !ok || price == nil || price.Sign() <= 0 {
		return nil, false, nil
	}
	return new(big.Int).Set(price), true, nil
}

type priceSetEvent struct {
	evt *types.Event
}

func (e priceSetEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e priceSetEvent) Event() *types.Event { return e.evt }
