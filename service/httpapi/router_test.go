package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"NeuroQ/module/responder"
	"NeuroQ/module/triage"
	"NeuroQ/service/chat"
	"NeuroQ/service/chat/handlers"
	"NeuroQ/service/events"
	"NeuroQ/service/storage"
	"NeuroQ/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokens map[string]string

func (t tokens) Resolve(_ context.Context, cred string) (string, bool) {
	u, ok := t[cred]
	return u, ok
}

// ResolveRole: "ops" is a service credential, everything else an end user.
func (t tokens) ResolveRole(ctx context.Context, cred string) (string, string, bool) {
	u, ok := t.Resolve(ctx, cred)
	if cred == "ops" {
		return u, security.RoleOperator, ok
	}
	return u, "", ok
}

type fakeRelay struct {
	mu   sync.Mutex
	envs []chat.Envelope
	err  error
}

func (r *fakeRelay) Publish(_ context.Context, env chat.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.envs = append(r.envs, env)
	return nil
}

func newTestRouter(relay RelayPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tk := tokens{"good": "u1", "ops": "svc-notify"}
	srv := chat.NewServer(chat.Options{}, tk, handlers.NewDispatcher(responder.New()))
	d := Deps{
		Chat:           srv,
		Predictor:      triage.NewEngine(),
		Events:         events.Discard{},
		Resolver:       tk,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	if relay != nil {
		d.Relay = relay
	}
	return NewRouter(d)
}

func do(t *testing.T, r http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	tok := ""
	if auth {
		tok = "good"
	}
	return doAs(t, r, method, path, body, tok)
}

func doAs(t *testing.T, r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestRootAndHealth(t *testing.T) {
	r := newTestRouter(nil)

	w := do(t, r, http.MethodGet, "/", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"message": "Welcome to NeuroQ API",
		"version": "1.0.0",
		"status":  "healthy",
	}, decode(t, w))

	w = do(t, r, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestMetricsExposed(t *testing.T) {
	w := do(t, newTestRouter(nil), http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestV1RequiresAuth(t *testing.T) {
	r := newTestRouter(nil)
	for _, p := range []string{"/api/v1/symptoms/predict", "/api/v1/notify/u1", "/api/v1/broadcast"} {
		w := do(t, r, http.MethodPost, p, `{"type":"message"}`, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, p)
	}
}

func TestPredict(t *testing.T) {
	w := do(t, newTestRouter(nil), http.MethodPost, "/api/v1/symptoms/predict",
		`{"input_text":"I cannot sleep and feel hopeless","mood_rating":2}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "Depression", got["predicted_disorder"])
	assert.Equal(t, "severe", got["severity_level"])
}

func TestPushRoutesNeedOperator(t *testing.T) {
	relay := &fakeRelay{}
	r := newTestRouter(relay)
	for _, p := range []string{"/api/v1/notify/u2", "/api/v1/broadcast"} {
		w := do(t, r, http.MethodPost, p, `{"type":"error","content":"gotcha"}`, true)
		assert.Equal(t, http.StatusForbidden, w.Code, p)
	}
	assert.Empty(t, relay.envs)
}

func TestNotifyLocal(t *testing.T) {
	r := newTestRouter(nil)

	w := doAs(t, r, http.MethodPost, "/api/v1/notify/nobody", `{"type":"message","content":"hi"}`, "ops")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["delivered"])

	w = doAs(t, r, http.MethodPost, "/api/v1/broadcast", `{"type":"message","content":"hi"}`, "ops")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.EqualValues(t, 0, got["sent"])
	assert.Equal(t, false, got["failed"])

	w = doAs(t, r, http.MethodPost, "/api/v1/notify/u1", `{"content":"no type"}`, "ops")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifyViaRelay(t *testing.T) {
	relay := &fakeRelay{}
	r := newTestRouter(relay)

	w := doAs(t, r, http.MethodPost, "/api/v1/notify/u2", `{"type":"message","content":"hello","session_id":"s1"}`, "ops")
	require.Equal(t, http.StatusAccepted, w.Code)
	w = doAs(t, r, http.MethodPost, "/api/v1/broadcast", `{"type":"typing"}`, "ops")
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Len(t, relay.envs, 2)
	assert.Equal(t, "u2", relay.envs[0].To)
	assert.Equal(t, "hello", relay.envs[0].Frame.Content)
	assert.Equal(t, "s1", relay.envs[0].Frame.SessionID)
	assert.Empty(t, relay.envs[1].To)
	assert.Equal(t, chat.TypeTyping, relay.envs[1].Frame.Type)

	relay.err = errors.New("nats down")
	w = doAs(t, r, http.MethodPost, "/api/v1/broadcast", `{"type":"typing"}`, "ops")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

type fakePresence map[string]storage.PresenceRecord

func (f fakePresence) Lookup(_ context.Context, user string) (storage.PresenceRecord, bool, error) {
	if user == "broken" {
		return storage.PresenceRecord{}, false, errors.New("redis down")
	}
	rec, ok := f[user]
	return rec, ok, nil
}

func TestPresence(t *testing.T) {
	r := newTestRouter(nil)
	w := doAs(t, r, http.MethodGet, "/api/v1/presence/u1", "", "ops")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["online"])
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/api/v1/presence/u1", "", true).Code)

	gin.SetMode(gin.TestMode)
	tk := tokens{"ops": "svc"}
	cluster := NewRouter(Deps{
		Chat:      chat.NewServer(chat.Options{}, tk, handlers.NewDispatcher(responder.New())),
		Predictor: triage.NewEngine(),
		Resolver:  tk,
		Presence:  fakePresence{"u9": {Node: "gw-b", ConnID: "c9", Since: 1}},
	})
	w = doAs(t, cluster, http.MethodGet, "/api/v1/presence/u9", "", "ops")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, true, got["online"])
	assert.Equal(t, "gw-b", got["node"])
	assert.Equal(t, http.StatusBadGateway, doAs(t, cluster, http.MethodGet, "/api/v1/presence/broken", "", "ops").Code)
}
