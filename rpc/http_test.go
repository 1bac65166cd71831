package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"amachain/core/state"
	"amachain/native/ama"
	"amachain/native/pricing"
	"amachain/native/token"
	"amachain/storage"
)

type testNode struct {
	server   *Server
	http     *httptest.Server
	tokens   *token.Engine
	owner    [20]byte
	vault    [20]byte
	now      *int64
	registry *pricing.Registry
}

func newTestNode(t *testing.T) *testNode {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	vault := ama.ModuleVault()
	owner := rawAddr(0x01)

	tokens := token.NewEngine()
	tokens.SetState(manager)
	tokens.SetOwner(owner)

	registry := pricing.NewRegistry()
	registry.SetState(manager)

	questions := ama.NewEngine()
	questions.SetState(manager)
	questions.SetLedger(token.NewVaultLedger(tokens, vault))
	questions.SetVault(vault)

	now := int64(1_000)
	questions.SetNowFunc(func() int64 { return now })

	server := NewServer(questions, registry, tokens, NodeInfo{
		ProtocolVersion:      10,
		FundTimeoutSeconds:   ama.DefaultFundTimeout,
		AnswerTimeoutSeconds: ama.DefaultAnswerTimeout,
		Vault:                bech32String(vault),
	})
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testNode{
		server:   server,
		http:     ts,
		tokens:   tokens,
		owner:    owner,
		vault:    vault,
		now:      &now,
		registry: registry,
	}
}

func rawAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func (n *testNode) fund(t *testing.T, account [20]byte, amount int64) {
	t.Helper()
	if err := n.tokens.Mint(n.owner, account, big.NewInt(amount)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := n.tokens.Approve(account, n.vault, big.NewInt(amount)); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
}

func (n *testNode) call(t *testing.T, method string, params interface{}) *RPCResponse {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(n.http.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	out := &RPCResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (n *testNode) mustCall(t *testing.T, method string, params interface{}) json.RawMessage {
	t.Helper()
	resp := n.call(t, method, params)
	if resp.Error != nil {
		t.Fatalf("%s failed: %+v", method, resp.Error)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-marshal result: %v", err)
	}
	return raw
}

func TestQuestionFlowOverRPC(t *testing.T) {
	node := newTestNode(t)
	answerer := rawAddr(0x0A)
	questioner := rawAddr(0x0B)
	listener := rawAddr(0x0C)
	node.fund(t, questioner, 5_000)
	node.fund(t, listener, 5_000)

	node.mustCall(t, "price_set", map[string]interface{}{
		"caller": bech32String(answerer),
		"amount": "1000",
	})

	raw := node.mustCall(t, "ama_ask", map[string]interface{}{
		"caller":       bech32String(questioner),
		"questionId":   10010,
		"answerer":     bech32String(answerer),
		"initialStake": "1000",
	})
	var question questionResult
	if err := json.Unmarshal(raw, &question); err != nil {
		t.Fatalf("decode question: %v", err)
	}
	if question.TotalStaked != "1000" || question.Status != "funding" {
		t.Fatalf("unexpected question after ask: %+v", question)
	}

	node.mustCall(t, "ama_answer", map[string]interface{}{
		"caller":     bech32String(answerer),
		"questionId": 10010,
	})
	node.mustCall(t, "ama_listen", map[string]interface{}{
		"caller":     bech32String(listener),
		"questionId": 10010,
		"amount":     "200",
	})

	raw = node.mustCall(t, "ama_withdraw", map[string]interface{}{
		"caller":     bech32String(questioner),
		"questionId": 10010,
	})
	var withdrawal withdrawResult
	if err := json.Unmarshal(raw, &withdrawal); err != nil {
		t.Fatalf("decode withdrawal: %v", err)
	}
	// 1000 of 2000 weight over a pool of 200.
	if withdrawal.Amount != "100" {
		t.Fatalf("expected withdrawal of 100, got %s", withdrawal.Amount)
	}

	raw = node.mustCall(t, "ama_getQuestion", map[string]interface{}{
		"questionId": 10010,
	})
	if err := json.Unmarshal(raw, &question); err != nil {
		t.Fatalf("decode question: %v", err)
	}
	if question.Status != "answered" || question.RevenuePool != "200" {
		t.Fatalf("unexpected question state: %+v", question)
	}
}

func TestEngineErrorsSurfaceAsRPCErrors(t *testing.T) {
	node := newTestNode(t)
	questioner := rawAddr(0x0B)
	node.fund(t, questioner, 1_000)

	resp := node.call(t, "ama_ask", map[string]interface{}{
		"caller":       bech32String(questioner),
		"questionId":   1,
		"answerer":     bech32String(rawAddr(0x0A)),
		"initialStake": "100",
	})
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected server error for unpriced answerer, got %+v", resp.Error)
	}

	resp = node.call(t, "ama_ask", map[string]interface{}{
		"caller":       "not-an-address",
		"questionId":   1,
		"answerer":     bech32String(rawAddr(0x0A)),
		"initialStake": "100",
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params for bad address, got %+v", resp.Error)
	}
}

func TestMethodNotFound(t *testing.T) {
	node := newTestNode(t)
	resp := node.call(t, "ama_unknown", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestMintRequiresBearerToken(t *testing.T) {
	t.Setenv("AMA_RPC_TOKEN", "secret-token")
	node := newTestNode(t)

	params := map[string]interface{}{
		"caller": bech32String(node.owner),
		"to":     bech32String(rawAddr(0x0B)),
		"amount": "500",
	}
	resp := node.call(t, "token_mint", params)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized without token, got %+v", resp.Error)
	}

	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "token_mint",
		"params":  []interface{}{params},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, node.http.URL, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret-token")
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized mint failed: %v", err)
	}
	defer httpResp.Body.Close()
	out := &RPCResponse{}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error != nil {
		t.Fatalf("authorized mint rejected: %+v", out.Error)
	}

	balance, err := node.tokens.BalanceOf(rawAddr(0x0B))
	if err != nil {
		t.Fatalf("balance query failed: %v", err)
	}
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected minted balance 500, got %s", balance)
	}
}

func TestNetInfoEchoesNodeMetadata(t *testing.T) {
	node := newTestNode(t)
	raw := node.mustCall(t, "net_info", nil)
	var info NodeInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.ProtocolVersion != 10 {
		t.Fatalf("unexpected protocol version %d", info.ProtocolVersion)
	}
	if info.Vault != bech32String(ama.ModuleVault()) {
		t.Fatalf("unexpected vault %s", info.Vault)
	}
}

func TestQuestionNotFoundSurfacesUpstreamMessage(t *testing.T) {
	node := newTestNode(t)
	resp := node.call(t, "ama_getQuestion", map[string]interface{}{"questionId": 404})
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected server error for unknown question, got %+v", resp.Error)
	}
}
