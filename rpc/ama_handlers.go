package rpc

import (
	"encoding/json"
	"errors"
	"math/big"

	"amachain/crypto"
	"amachain/native/ama"
)

type amaAskParams struct {
	Caller       string `json:"caller"`
	QuestionID   uint64 `json:"questionId"`
	Answerer     string `json:"answerer"`
	InitialStake string `json:"initialStake"`
}

type amaStakeParams struct {
	Caller     string `json:"caller"`
	QuestionID uint64 `json:"questionId"`
	Amount     string `json:"amount"`
}

type amaCallParams struct {
	Caller     string `json:"caller"`
	QuestionID uint64 `json:"questionId"`
}

type amaListenParams struct {
	Caller     string `json:"caller"`
	QuestionID uint64 `json:"questionId"`
	Amount     string `json:"amount"`
}

type amaQueryParams struct {
	QuestionID uint64 `json:"questionId"`
}

type stakeResult struct {
	Staker    string `json:"staker"`
	Amount    string `json:"amount"`
	Withdrawn string `json:"withdrawn"`
	Virtual   bool   `json:"virtual,omitempty"`
}

type questionResult struct {
	ID                 uint64        `json:"id"`
	Questioner         string        `json:"questioner"`
	Answerer           string        `json:"answerer"`
	FundingGoal        string        `json:"fundingGoal"`
	TotalStaked        string        `json:"totalStaked"`
	RevenuePool        string        `json:"revenuePool"`
	CreatedAt          int64         `json:"createdAt"`
	FundingCompletedAt int64         `json:"fundingCompletedAt,omitempty"`
	AnsweredAt         int64         `json:"answeredAt,omitempty"`
	Status             string        `json:"status"`
	Stakes             []stakeResult `json:"stakes"`
}

type withdrawResult struct {
	QuestionID uint64 `json:"questionId"`
	Staker     string `json:"staker"`
	Amount     string `json:"amount"`
}

func formatQuestion(q *ama.Question) questionResult {
	out := questionResult{
		ID:                 q.ID,
		Questioner:         bech32String(q.Questioner),
		Answerer:           bech32String(q.Answerer),
		FundingGoal:        bigString(q.FundingGoal),
		TotalStaked:        bigString(q.TotalStaked),
		RevenuePool:        bigString(q.RevenuePool),
		CreatedAt:          q.CreatedAt,
		FundingCompletedAt: q.FundingCompletedAt,
		AnsweredAt:         q.AnsweredAt,
		Status:             q.Status.String(),
	}
	for _, entry := range q.Stakes {
		if entry == nil {
			continue
		}
		out.Stakes = append(out.Stakes, stakeResult{
			Staker:    bech32String(entry.Staker),
			Amount:    bigString(entry.Amount),
			Withdrawn: bigString(entry.Withdrawn),
			Virtual:   entry.Virtual,
		})
	}
	return out
}

func bech32String(addr [20]byte) string {
	return crypto.NewAddress(crypto.AMAPrefix, addr[:]).String()
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodeParams(params []json.RawMessage, out interface{}) *RPCError {
	if len(params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()}
	}
	return nil
}

func parseAddress(field, value string) ([20]byte, *RPCError) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(value)
	if err != nil {
		return out, &RPCError{Code: codeInvalidParams, Message: field + " must be a bech32 address", Data: err.Error()}
	}
	return decoded.Raw(), nil
}

func parseAmount(field, value string) (*big.Int, *RPCError) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, &RPCError{Code: codeInvalidParams, Message: field + " must be a base-10 integer"}
	}
	return amount, nil
}

func engineError(err error) *RPCError {
	switch {
	case errors.Is(err, ama.ErrInvalidAmount), errors.Is(err, ama.ErrMustPay):
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	default:
		return &RPCError{Code: codeServerError, Message: err.Error()}
	}
}

func (s *Server) handleAsk(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaAskParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	answerer, rpcErr := parseAddress("answerer", p.Answerer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("initialStake", p.InitialStake)
	if rpcErr != nil {
		return nil, rpcErr
	}
	question, err := s.questions.Ask(caller, p.QuestionID, answerer, amount)
	if err != nil {
		return nil, engineError(err)
	}
	return formatQuestion(question), nil
}

func (s *Server) handleStake(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaStakeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	question, err := s.questions.Stake(caller, p.QuestionID, amount)
	if err != nil {
		return nil, engineError(err)
	}
	return formatQuestion(question), nil
}

func (s *Server) handleAnswer(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaCallParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	question, err := s.questions.Answer(caller, p.QuestionID)
	if err != nil {
		return nil, engineError(err)
	}
	return formatQuestion(question), nil
}

func (s *Server) handleListen(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaListenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	question, err := s.questions.Listen(caller, p.QuestionID, amount)
	if err != nil {
		return nil, engineError(err)
	}
	return formatQuestion(question), nil
}

func (s *Server) handleWithdraw(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaCallParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := s.questions.Withdraw(caller, p.QuestionID)
	if err != nil {
		return nil, engineError(err)
	}
	return withdrawResult{QuestionID: p.QuestionID, Staker: p.Caller, Amount: bigString(amount)}, nil
}

func (s *Server) handleRefund(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaCallParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	question, err := s.questions.Refund(caller, p.QuestionID)
	if err != nil {
		return nil, engineError(err)
	}
	return formatQuestion(question), nil
}

func (s *Server) handleGetQuestion(params []json.RawMessage) (interface{}, *RPCError) {
	var p amaQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	question, err := s.questions.Get(p.QuestionID)
	if err != nil {
		return nil, engineError(err)
	}
	return formatQuestion(question), nil
}
