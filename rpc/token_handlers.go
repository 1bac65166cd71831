package rpc

import "encoding/json"

type priceSetParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type priceGetParams struct {
	Answerer string `json:"answerer"`
}

type priceResult struct {
	Answerer string `json:"answerer"`
	Price    string `json:"price"`
	Ready    bool   `json:"ready"`
}

type tokenMintParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenApproveParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type tokenTransferParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenBalanceParams struct {
	Address string `json:"address"`
}

type tokenBalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type ackResult struct {
	OK bool `json:"ok"`
}

func (s *Server) handlePriceSet(params []json.RawMessage) (interface{}, *RPCError) {
	var p priceSetParams
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
	if err := s.prices.SetPrice(caller, amount); err != nil {
		return nil, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	return priceResult{Answerer: p.Caller, Price: amount.String(), Ready: true}, nil
}

func (s *Server) handlePriceGet(params []json.RawMessage) (interface{}, *RPCError) {
	var p priceGetParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	answerer, rpcErr := parseAddress("answerer", p.Answerer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, ok, err := s.prices.GetPrice(answerer)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	result := priceResult{Answerer: p.Answerer, Price: "0", Ready: ok}
	if ok {
		result.Price = price.String()
	}
	return result, nil
}

func (s *Server) handleMint(params []json.RawMessage) (interface{}, *RPCError) {
	var p tokenMintParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress("to", p.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.tokens.Mint(caller, to, amount); err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	return ackResult{OK: true}, nil
}

func (s *Server) handleApprove(params []json.RawMessage) (interface{}, *RPCError) {
	var p tokenApproveParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := parseAddress("spender", p.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.tokens.Approve(caller, spender, amount); err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	return ackResult{OK: true}, nil
}

func (s *Server) handleTransfer(params []json.RawMessage) (interface{}, *RPCError) {
	var p tokenTransferParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress("caller", p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress("to", p.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount("amount", p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.tokens.Transfer(caller, to, amount); err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	return ackResult{OK: true}, nil
}

func (s *Server) handleGetBalance(params []json.RawMessage) (interface{}, *RPCError) {
	var p tokenBalanceParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress("address", p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.tokens.BalanceOf(addr)
	if err != nil {
		return nil, &RPCError{Code: codeServerError, Message: err.Error()}
	}
	return tokenBalanceResult{Address: p.Address, Balance: balance.String()}, nil
}
