package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"amachain/native/ama"
	"amachain/native/pricing"
	"amachain/native/token"
	"amachain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// NodeInfo is static node metadata echoed through net_info.
type NodeInfo struct {
	ProtocolVersion      uint64 `json:"protocolVersion"`
	FundTimeoutSeconds   int64  `json:"fundTimeoutSeconds"`
	AnswerTimeoutSeconds int64  `json:"answerTimeoutSeconds"`
	Vault                string `json:"vault"`
}

// Server exposes the marketplace engines over JSON-RPC 2.0.
type Server struct {
	questions *ama.Engine
	prices    *pricing.Registry
	tokens    *token.Engine
	info      NodeInfo

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	authToken string
}

// Per-source request budget. Generous enough for interactive clients while
// keeping a stuck retry loop from starving the node.
const (
	requestsPerSecond = 20
	requestBurst      = 40
)

// NewServer wires the engines into an RPC surface. The mint method requires
// the bearer token from AMA_RPC_TOKEN when set.
func NewServer(questions *ama.Engine, prices *pricing.Registry, tokens *token.Engine, info NodeInfo) *Server {
	return &Server{
		questions: questions,
		prices:    prices,
		tokens:    tokens,
		info:      info,
		limiters:  make(map[string]*rate.Limiter),
		authToken: strings.TrimSpace(os.Getenv("AMA_RPC_TOKEN")),
	}
}

// Start serves the RPC endpoint until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
}

// Handler returns the HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) limiter(source string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst)
		s.limiters[source] = limiter
	}
	return limiter
}

func clientSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.limiter(clientSource(r)).Allow() {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "too many requests", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	started := time.Now()
	var rpcErr *RPCError
	var result interface{}

	switch req.Method {
	case "ama_ask":
		result, rpcErr = s.handleAsk(req.Params)
	case "ama_stake":
		result, rpcErr = s.handleStake(req.Params)
	case "ama_answer":
		result, rpcErr = s.handleAnswer(req.Params)
	case "ama_listen":
		result, rpcErr = s.handleListen(req.Params)
	case "ama_withdraw":
		result, rpcErr = s.handleWithdraw(req.Params)
	case "ama_refund":
		result, rpcErr = s.handleRefund(req.Params)
	case "ama_getQuestion":
		result, rpcErr = s.handleGetQuestion(req.Params)
	case "price_set":
		result, rpcErr = s.handlePriceSet(req.Params)
	case "price_get":
		result, rpcErr = s.handlePriceGet(req.Params)
	case "token_mint":
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "mint requires a valid bearer token", nil)
			return
		}
		result, rpcErr = s.handleMint(req.Params)
	case "token_approve":
		result, rpcErr = s.handleApprove(req.Params)
	case "token_transfer":
		result, rpcErr = s.handleTransfer(req.Params)
	case "token_getBalance":
		result, rpcErr = s.handleGetBalance(req.Params)
	case "net_info":
		result = s.info
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
		return
	}

	module, method := splitMethod(req.Method)
	outcome := "ok"
	if rpcErr != nil {
		outcome = "error"
	}
	observability.Metrics().ObserveRequest(module, method, outcome, time.Since(started).Seconds())

	if rpcErr != nil {
		writeError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func splitMethod(method string) (string, string) {
	if idx := strings.IndexByte(method, '_'); idx > 0 {
		return method[:idx], method[idx+1:]
	}
	return method, method
}
