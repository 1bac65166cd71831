package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// QuestionRoutes is a REST facade over the node's JSON-RPC surface, exposing
// question and price reads plus stake and listen submission.
type QuestionRoutes struct {
	target  *url.URL
	client  *http.Client
	timeout time.Duration
	nextID  atomic.Int64
}

// NewQuestionRoutes points the facade at the JSON-RPC node.
func NewQuestionRoutes(target *url.URL, timeout time.Duration) *QuestionRoutes {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QuestionRoutes{
		target:  target,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// MountReads attaches the read-only routes to the router.
func (q *QuestionRoutes) MountReads(r chi.Router) {
	r.Get("/v1/questions/{id}", q.getQuestion)
	r.Get("/v1/prices/{address}", q.getPrice)
}

// MountWrites attaches the submission routes to the router.
func (q *QuestionRoutes) MountWrites(r chi.Router) {
	r.Post("/v1/questions/{id}/stake", q.postStake)
	r.Post("/v1/questions/{id}/listen", q.postListen)
}

type stakeSubmission struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (q *QuestionRoutes) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	q.forward(w, r.Context(), "ama_getQuestion", map[string]interface{}{"questionId": id})
}

func (q *QuestionRoutes) getPrice(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	q.forward(w, r.Context(), "price_get", map[string]interface{}{"answerer": address})
}

func (q *QuestionRoutes) postStake(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	var body stakeSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	q.forward(w, r.Context(), "ama_stake", map[string]interface{}{
		"caller":     body.Caller,
		"questionId": id,
		"amount":     body.Amount,
	})
}

func (q *QuestionRoutes) postListen(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid question id", http.StatusBadRequest)
		return
	}
	var body stakeSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	q.forward(w, r.Context(), "ama_listen", map[string]interface{}{
		"caller":     body.Caller,
		"questionId": id,
		"amount":     body.Amount,
	})
}

func (q *QuestionRoutes) forward(w http.ResponseWriter, ctx context.Context, method string, params interface{}) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []interface{}{params},
		ID:      q.nextID.Add(1),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode request", http.StatusInternalServerError)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.target.String(), bytes.NewReader(encoded))
	if err != nil {
		http.Error(w, "failed to build upstream request", http.StatusInternalServerError)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := q.client.Do(req)
	if err != nil {
		http.Error(w, fmt.Sprintf("upstream unavailable: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "failed to read upstream response", http.StatusBadGateway)
		return
	}
	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		http.Error(w, "invalid upstream response", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if decoded.Error != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(decoded.Error)
		return
	}
	_, _ = w.Write(decoded.Result)
}
