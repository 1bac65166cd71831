package gateway

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// stubNode answers JSON-RPC calls with canned results keyed by method name.
type stubNode struct {
	results map[string]string
	errors  map[string]string
}

func (s *stubNode) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		w.Header().Set("Content-Type", "application/json")
		if msg, ok := s.errors[req.Method]; ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"` + msg + `"}}`))
			return
		}
		result, ok := s.results[req.Method]
		if !ok {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	})
}

func newGateway(t *testing.T, node *stubNode) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(node.handler())
	t.Cleanup(upstream.Close)

	handler, err := New(upstream.URL, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("gateway construction failed: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestGetQuestionProxiesUpstreamResult(t *testing.T) {
	node := &stubNode{results: map[string]string{
		"ama_getQuestion": `{"id":10010,"status":"answered","revenuePool":"31"}`,
	}}
	gw := newGateway(t, node)

	resp, err := http.Get(gw.URL + "/v1/questions/10010")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var out struct {
		ID          uint64 `json:"id"`
		Status      string `json:"status"`
		RevenuePool string `json:"revenuePool"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.ID != 10010 || out.Status != "answered" || out.RevenuePool != "31" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestGetQuestionRejectsBadID(t *testing.T) {
	gw := newGateway(t, &stubNode{})
	resp, err := http.Get(gw.URL + "/v1/questions/not-a-number")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStakeSubmissionForwardsAndMapsErrors(t *testing.T) {
	node := &stubNode{errors: map[string]string{
		"ama_stake": "ama: funding already completed",
	}}
	gw := newGateway(t, node)

	body := strings.NewReader(`{"caller":"ama1example","amount":"100"}`)
	resp, err := http.Post(gw.URL+"/v1/questions/10010/stake", "application/json", body)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for upstream error, got %d", resp.StatusCode)
	}
	var rpcErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcErr); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rpcErr.Message != "ama: funding already completed" {
		t.Fatalf("unexpected upstream message: %q", rpcErr.Message)
	}
}

func TestListenSubmissionProxiesResult(t *testing.T) {
	node := &stubNode{results: map[string]string{
		"ama_listen": `{"id":10010,"revenuePool":"131"}`,
	}}
	gw := newGateway(t, node)

	body := strings.NewReader(`{"caller":"ama1example","amount":"100"}`)
	resp, err := http.Post(gw.URL+"/v1/questions/10010/listen", "application/json", body)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestSubmissionRateLimit(t *testing.T) {
	node := &stubNode{results: map[string]string{
		"ama_listen": `{"id":1}`,
	}}
	gw := newGateway(t, node)

	// Submission budget bursts at 10; the 11th immediate request is rejected.
	limited := false
	for i := 0; i < 12; i++ {
		body := strings.NewReader(`{"caller":"ama1example","amount":"1"}`)
		resp, err := http.Post(gw.URL+"/v1/questions/1/listen", "application/json", body)
		if err != nil {
			t.Fatalf("post failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected rate limiter to reject burst traffic")
	}
}
