package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBotAPI records sendMessage payloads and serves queued getUpdates bodies.
type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []map[string]string
	failures int
	updates  []string
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bottoken/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			http.Error(w, `{"ok":false}`, http.StatusBadGateway)
			return
		}
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.sent = append(f.sent, payload)
		fmt.Fprint(w, `{"ok":true}`)
	})
	mux.HandleFunc("/bottoken/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body := `{"ok":true,"result":[]}`
		if len(f.updates) > 0 {
			body, f.updates = f.updates[0], f.updates[1:]
		}
		fmt.Fprint(w, body)
	})
	return mux
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	return n
}

func TestSend_PostsHTMLMessage(t *testing.T) {
	api := &fakeBotAPI{}
	n := newTestNotifier(t, api)

	require.NoError(t, n.Send("<b>hi</b>"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.sent[0]["chat_id"])
	assert.Equal(t, "<b>hi</b>", api.sent[0]["text"])
	assert.Equal(t, "HTML", api.sent[0]["parse_mode"])
}

func TestSend_ReportsAPIErrors(t *testing.T) {
	api := &fakeBotAPI{failures: 1}
	n := newTestNotifier(t, api)

	err := n.Send("hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestSendWithRetry(t *testing.T) {
	api := &fakeBotAPI{failures: 1}
	n := newTestNotifier(t, api)

	require.NoError(t, n.SendWithRetry(context.Background(), "hi", 1))
	assert.Len(t, api.sent, 1)

	api.failures = 5
	err := n.SendWithRetry(context.Background(), "hi", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 attempts exhausted")
}

func TestSendWithRetry_StopsOnCancel(t *testing.T) {
	api := &fakeBotAPI{failures: 5}
	n := newTestNotifier(t, api)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.SendWithRetry(ctx, "hi", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoll_AnswersCommandsAndAdvancesOffset(t *testing.T) {
	api := &fakeBotAPI{updates: []string{
		`{"ok":true,"result":[
			{"update_id":7,"message":{"text":" /supply "}},
			{"update_id":8},
			{"update_id":9,"message":{"text":"/unknown"}}
		]}`,
	}}
	n := newTestNotifier(t, api)

	var got []string
	handler := func(cmd string) string {
		got = append(got, cmd)
		if cmd == "/supply" {
			return "supply reply"
		}
		return ""
	}

	offset, err := n.poll(context.Background(), n.httpClient(), 0, handler)
	require.NoError(t, err)
	assert.Equal(t, 10, offset)
	assert.Equal(t, []string{"/supply", "/unknown"}, got)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "supply reply", api.sent[0]["text"])

	offset, err = n.poll(context.Background(), n.httpClient(), offset, handler)
	require.NoError(t, err)
	assert.Equal(t, 10, offset)
}

func TestPoll_RejectsMalformedResponse(t *testing.T) {
	api := &fakeBotAPI{updates: []string{`not json`}}
	n := newTestNotifier(t, api)

	offset, err := n.poll(context.Background(), n.httpClient(), 3, func(string) string { return "" })
	assert.Error(t, err)
	assert.Equal(t, 3, offset)
}
