package web

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lvalerom/jsamp/internal/config"
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport/webjson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer wires a Profile's handler chain onto an httptest
// server without going through Start/ListenAndServe, mirroring how
// webjson's own tests exercise a Handler directly.
func newTestServer(t *testing.T, p *Profile) *httptest.Server {
	t.Helper()
	p.dispatcher = p.buildDispatcher()
	engine := gin.New()
	engine.Use(p.corsMiddleware())
	engine.POST("/", p.handleCall)
	engine.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, origin string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func register(t *testing.T, srv *httptest.Server) (selfID, privKey string) {
	t.Helper()
	body, _ := webjson.EncodeCall(registerMethod, sampvalue.List{sampvalue.NewMap()})
	resp := post(t, srv.URL, "https://example.test", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: status %d", resp.StatusCode)
	}
	result, err := webjson.DecodeResponse(readBody(t, resp))
	if err != nil {
		t.Fatalf("register: decode: %v", err)
	}
	m := result.(*sampvalue.Map)
	self, _ := m.GetString("samp.self-id")
	key, _ := m.GetString("samp.private-key")
	return self, key
}

func TestRegisterDeniedOriginReturnsForbidden(t *testing.T) {
	h := hub.New(hub.DefaultConfig())
	log := zap.NewNop().Sugar()
	p := New(h, config.WebConfig{QueueBound: 4, AllowAllOrigins: true}, log)
	p.clientAuthorizer = PromptClientAuthorizer{}
	srv := newTestServer(t, p)

	body, _ := webjson.EncodeCall(registerMethod, sampvalue.List{sampvalue.NewMap()})
	resp := post(t, srv.URL, "https://untrusted.test", body)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", resp.StatusCode)
	}
}

func TestRegisterAndPullCallbacksRoundTrip(t *testing.T) {
	h := hub.New(hub.DefaultConfig())
	log := zap.NewNop().Sugar()
	p := New(h, config.WebConfig{QueueBound: 10, AllowAllOrigins: true}, log)
	srv := newTestServer(t, p)

	wID, wKey := register(t, srv)

	subs := sampvalue.NewMap()
	subs.Set("samp.hub.event.register", sampvalue.NewMap())
	if err := h.DeclareSubscriptions(wKey, subs); err != nil {
		t.Fatalf("DeclareSubscriptions: %v", err)
	}

	otherID, _, err := h.Register("")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_ = otherID
	_ = wID

	body, _ := webjson.EncodeCall(pullCallbacksMethod, sampvalue.List{sampvalue.String(wKey), sampvalue.String("2")})
	resp := post(t, srv.URL, "", body)
	result, err := webjson.DecodeResponse(readBody(t, resp))
	if err != nil {
		t.Fatalf("pullCallbacks: decode: %v", err)
	}
	batch := result.(sampvalue.List)
	if len(batch) != 1 {
		t.Fatalf("got %d pending callbacks, want 1", len(batch))
	}
}

func TestPullCallbacksIdleTimeoutReturnsEmpty(t *testing.T) {
	h := hub.New(hub.DefaultConfig())
	log := zap.NewNop().Sugar()
	p := New(h, config.WebConfig{QueueBound: 10, AllowAllOrigins: true}, log)
	srv := newTestServer(t, p)

	_, wKey := register(t, srv)

	body, _ := webjson.EncodeCall(pullCallbacksMethod, sampvalue.List{sampvalue.String(wKey), sampvalue.String("0")})
	resp := post(t, srv.URL, "", body)
	result, err := webjson.DecodeResponse(readBody(t, resp))
	if err != nil {
		t.Fatalf("pullCallbacks: decode: %v", err)
	}
	batch := result.(sampvalue.List)
	if len(batch) != 0 {
		t.Fatalf("got %d pending callbacks, want 0", len(batch))
	}
}

// TestPullQueueOverflowDropsOldest covers scenario S5: bound = 3, five
// events queued without a pull in between, lagging set, only the last
// three retained.
func TestPullQueueOverflowDropsOldest(t *testing.T) {
	q := newPullQueue(3)
	for i := 0; i < 5; i++ {
		q.enqueue("samp.client.receiveNotification", sampvalue.List{sampvalue.String(string(rune('a' + i)))})
	}
	batch, lagging := q.drain(0)
	if !lagging {
		t.Fatal("expected lagging flag set")
	}
	if len(batch) != 3 {
		t.Fatalf("got %d items, want 3", len(batch))
	}
	first := string(batch[0].args[0].(sampvalue.String))
	if first != "c" {
		t.Fatalf("got oldest retained item %q, want %q (events a,b should have been dropped)", first, "c")
	}
}
