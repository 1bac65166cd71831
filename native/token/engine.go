package token

import (
	"encoding/hex"
	"errors"
	"math/big"

	"amachain/core/events"
	"amachain/core/types"
)

var (
	// ErrInvalidAmount rejects zero or negative token movements.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrInsufficientFunds rejects transfers exceeding the sender's balance.
	ErrInsufficientFunds = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance rejects TransferFrom beyond the approved amount.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrNotOwner rejects mint calls from anyone but the configured owner.
	ErrNotOwner = errors.New("token: only owner can mint")

	errNilState = errors.New("token engine: state not configured")
)

type engineState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine implements the fungible balance ledger the marketplace moves value
// with: mint, transfer, and allowance-gated transfer-from, each all-or-nothing.
type Engine struct {
	state   engineState
	emitter events.Emitter
	owner   [20]byte
}

// NewEngine constructs a token engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetOwner configures the only account permitted to mint supply.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

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

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func spenderKey(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

func (e *Engine) loadAccount(addr [20]byte) (*types.Account, error) {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return ensureAccount(acc), nil
}

// Mint credits newly issued tokens to the recipient. Owner-gated.
func (e *Engine) Mint(caller, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := e.state.PutAccount(to[:], acc); err != nil {
		return err
	}
	e.emit(MintedEvent(to, amount))
	return nil
}

// Transfer moves tokens from the caller to the recipient. The operation fails
// without any movement when the balance is short.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return e.move(from, to, amount)
}

// TransferFrom moves tokens on behalf of the funds' owner, consuming the
// spender's allowance. The allowance and balance checks both pass before any
// state is written, so a failure never moves value.
func (e *Engine) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	key := spenderKey(spender)
	allowance := big.NewInt(0)
	if fromAcc.Allowances != nil && fromAcc.Allowances[key] != nil {
		allowance = fromAcc.Allowances[key]
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Allowances[key] = new(big.Int).Sub(allowance, amount)
	if from == to {
		// Self-transfer consumes the allowance but moves no value.
		if err := e.state.PutAccount(from[:], fromAcc); err != nil {
			return err
		}
		e.emit(TransferredEvent(from, to, amount))
		return nil
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(to[:], toAcc); err != nil {
		return err
	}
	e.emit(TransferredEvent(from, to, amount))
	return nil
}

// Approve grants the spender the right to pull up to amount from the caller.
// A zero amount clears the allowance.
func (e *Engine) Approve(caller, spender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	acc, err := e.loadAccount(caller)
	if err != nil {
		return err
	}
	if acc.Allowances == nil {
		acc.Allowances = make(map[string]*big.Int)
	}
	acc.Allowances[spenderKey(spender)] = new(big.Int).Set(amount)
	if err := e.state.PutAccount(caller[:], acc); err != nil {
		return err
	}
	e.emit(ApprovedEvent(caller, spender, amount))
	return nil
}

// Allowance returns what the spender may still pull from the owner.
func (e *Engine) Allowance(owner, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.loadAccount(owner)
	if err != nil {
		return nil, err
	}
	if acc.Allowances == nil {
		return big.NewInt(0), nil
	}
	allowance := acc.Allowances[spenderKey(spender)]
	if allowance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(allowance), nil
}

// BalanceOf returns the account's current balance.
func (e *Engine) BalanceOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	acc, err := e.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(acc.Balance), nil
}

func (e *Engine) move(from, to [20]byte, amount *big.Int) error {
	fromAcc, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	if err := e.state.PutAccount(to[:], toAcc); err != nil {
		return err
	}
	e.emit(TransferredEvent(from, to, amount))
	return nil
}
