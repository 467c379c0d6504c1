package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// testServer runs a WebSocket endpoint that captures the handshake headers
// and every JSON message the client sends.
type testServer struct {
	srv     *httptest.Server
	headers chan http.Header
	msgs    chan map[string]any
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		headers: make(chan http.Header, 1),
		msgs:    make(chan map[string]any, 16),
	}

	upgrader := websocket.Upgrader{}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.headers <- r.Header.Clone()

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer ws.Close()

		for {
			var msg map[string]any
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			ts.msgs <- msg
		}
	}))
	t.Cleanup(ts.srv.Close)

	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *testServer) nextMessage(t *testing.T) map[string]any {
	t.Helper()
	select {
	case msg := <-ts.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestDialRequiresAPIKey(t *testing.T) {
	if _, err := Dial(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestDialSendsAuthHeaders(t *testing.T) {
	ts := newTestServer(t)

	c, err := Dial(Config{APIKey: "sk-test", URL: ts.wsURL()})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	h := <-ts.headers
	if got := h.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("expected bearer header, got %q", got)
	}
	if got := h.Get("OpenAI-Beta"); got != "realtime=v1" {
		t.Errorf("expected realtime beta header, got %q", got)
	}
}

func TestDialUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := Dial(Config{APIKey: "sk-test", URL: url})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
}

func TestConfigureSessionWireFormat(t *testing.T) {
	ts := newTestServer(t)

	c, err := Dial(Config{APIKey: "sk-test", URL: ts.wsURL()})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()
	<-ts.headers

	err = c.ConfigureSession(SessionConfig{
		Instructions: "You collect loan details.",
		Voice:        "alloy",
		Temperature:  0.8,
	})
	if err != nil {
		t.Fatalf("ConfigureSession() error: %v", err)
	}

	msg := ts.nextMessage(t)
	if msg["type"] != "session.update" {
		t.Fatalf("expected session.update, got %v", msg["type"])
	}

	session, ok := msg["session"].(map[string]any)
	if !ok {
		t.Fatal("missing session object")
	}

	if session["input_audio_format"] != "g711_ulaw" {
		t.Errorf("input format = %v, want g711_ulaw", session["input_audio_format"])
	}
	if session["output_audio_format"] != "g711_ulaw" {
		t.Errorf("output format = %v, want g711_ulaw", session["output_audio_format"])
	}
	if session["voice"] != "alloy" {
		t.Errorf("voice = %v, want alloy", session["voice"])
	}
	if session["instructions"] != "You collect loan details." {
		t.Errorf("instructions = %v", session["instructions"])
	}
	if session["temperature"] != 0.8 {
		t.Errorf("temperature = %v, want 0.8", session["temperature"])
	}

	td, ok := session["turn_detection"].(map[string]any)
	if !ok || td["type"] != "server_vad" {
		t.Errorf("turn_detection = %v, want server_vad", session["turn_detection"])
	}

	modalities, _ := json.Marshal(session["modalities"])
	if string(modalities) != `["text","audio"]` {
		t.Errorf("modalities = %s, want [\"text\",\"audio\"]", modalities)
	}
}

func TestAppendAudioPassthrough(t *testing.T) {
	ts := newTestServer(t)

	c, err := Dial(Config{APIKey: "sk-test", URL: ts.wsURL()})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()
	<-ts.headers

	for _, payload := range []string{"AAA=", "BBB="} {
		if err := c.AppendAudio(payload); err != nil {
			t.Fatalf("AppendAudio(%q) error: %v", payload, err)
		}
	}

	for _, want := range []string{"AAA=", "BBB="} {
		msg := ts.nextMessage(t)
		if msg["type"] != "input_audio_buffer.append" {
			t.Errorf("type = %v, want input_audio_buffer.append", msg["type"])
		}
		if msg["audio"] != want {
			t.Errorf("audio = %v, want %q", msg["audio"], want)
		}
	}
}

func TestAppendAudioAfterClose(t *testing.T) {
	ts := newTestServer(t)

	c, err := Dial(Config{APIKey: "sk-test", URL: ts.wsURL()})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	<-ts.headers

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if c.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}

	if err := c.AppendAudio("AAA="); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}

	// Double close is a no-op.
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestReadMarksClosedOnPeerClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created"}`))
		ws.Close()
	}))
	defer srv.Close()

	c, err := Dial(Config{APIKey: "sk-test", URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer c.Close()

	data, err := c.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	ev, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error: %v", err)
	}
	if ev.Kind != KindSessionCreated {
		t.Errorf("kind = %d, want session created", ev.Kind)
	}

	if _, err := c.Read(); err == nil {
		t.Fatal("expected read error after peer close")
	}
	if c.IsOpen() {
		t.Error("IsOpen() = true after read failure")
	}
}
