// Package realtime provides a client for OpenAI's Realtime API for
// low-latency speech-to-speech conversations over a single WebSocket.
package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Defaults for the Realtime endpoint.
const (
	DefaultURL   = "wss://api.openai.com/v1/realtime"
	DefaultModel = "gpt-4o-realtime-preview-2024-10-01"

	handshakeTimeout = 10 * time.Second
)

// Config holds connection parameters for Dial.
type Config struct {
	// APIKey is the bearer credential. Required.
	APIKey string

	// URL overrides the endpoint, mainly for tests. Defaults to DefaultURL.
	URL string

	// Model selects the realtime model. Defaults to DefaultModel.
	Model string
}

// SessionConfig is the session-initialization message sent once per
// connection, before any audio is relayed. Audio stays in G.711 µ-law in
// both directions so telephony payloads pass through untouched.
type SessionConfig struct {
	Instructions string
	Voice        string
	Temperature  float64
}

// Client manages the WebSocket connection to the Realtime API. Writes are
// serialized internally; Read must be called from a single goroutine.
type Client struct {
	ws   *websocket.Conn
	wsMu sync.Mutex

	// mu guards open, which both relay directions check concurrently.
	mu   sync.RWMutex
	open bool
}

// Dial opens the connection and performs the WebSocket handshake.
// A rejected credential, TLS failure, or unreachable endpoint returns a
// *ConnectionError and the call must be aborted.
func Dial(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	base := cfg.URL
	if base == "" {
		base = DefaultURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	url := fmt.Sprintf("%s?model=%s", base, model)

	header := make(map[string][]string)
	header["Authorization"] = []string{"Bearer " + cfg.APIKey}
	header["OpenAI-Beta"] = []string{"realtime=v1"}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	ws, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	c := &Client{ws: ws, open: true}

	// Keep the connection alive across long silences.
	ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	return c, nil
}

// ConfigureSession sends the session-initialization message. Call this
// exactly once, before either relay loop starts consuming, so no audio
// reaches an unconfigured endpoint.
func (c *Client) ConfigureSession(sc SessionConfig) error {
	if sc.Voice == "" {
		sc.Voice = "alloy"
	}

	msg := map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"turn_detection":      map[string]string{"type": "server_vad"},
			"input_audio_format":  "g711_ulaw",
			"output_audio_format": "g711_ulaw",
			"voice":               sc.Voice,
			"instructions":        sc.Instructions,
			"modalities":          []string{"text", "audio"},
			"temperature":         sc.Temperature,
		},
	}

	return c.sendJSON(msg)
}

// AppendAudio forwards one base64 audio payload into the input buffer.
// The payload string is sent exactly as received from the telephony side.
func (c *Client) AppendAudio(payload string) error {
	if !c.IsOpen() {
		return ErrNotConnected
	}

	return c.sendJSON(map[string]string{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	})
}

// Read blocks until the next frame arrives. A returned error means the
// connection itself has failed or been closed: the reading loop must end.
func (c *Client) Read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.markClosed()
		return nil, err
	}
	return data, nil
}

// IsOpen reports whether the connection is still usable. Safe to call
// from both relay directions concurrently.
func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Close shuts the connection down. Closing an already closed client is a
// no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	wasOpen := c.open
	c.open = false
	c.mu.Unlock()

	if !wasOpen {
		return nil
	}
	return c.ws.Close()
}

func (c *Client) markClosed() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// sendJSON serializes writes to the WebSocket.
func (c *Client) sendJSON(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}

	return c.ws.WriteJSON(v)
}
