package realtime

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a recognized Realtime API event. Frames with a type tag
// outside this set decode to KindUnknown and are ignored by callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindSessionCreated
	KindSessionUpdated
	KindAudioDelta
	KindContentDone
	KindResponseDone
	KindSpeechStarted
	KindSpeechStopped
	KindBufferCommitted
	KindRateLimits
	KindError
)

// Event is one inbound Realtime API event, decoded once at the boundary.
type Event struct {
	Kind Kind

	// Type is the raw type tag, kept for logging.
	Type string

	// Delta holds the base64 audio chunk for KindAudioDelta.
	Delta string

	// Content holds the finalized text for KindContentDone.
	Content string

	// ErrorMessage holds the endpoint's message for KindError.
	ErrorMessage string
}

var kinds = map[string]Kind{
	"session.created":                   KindSessionCreated,
	"session.updated":                   KindSessionUpdated,
	"response.audio.delta":              KindAudioDelta,
	"response.content.done":             KindContentDone,
	"response.done":                     KindResponseDone,
	"input_audio_buffer.speech_started": KindSpeechStarted,
	"input_audio_buffer.speech_stopped": KindSpeechStopped,
	"input_audio_buffer.committed":      KindBufferCommitted,
	"rate_limits.updated":               KindRateLimits,
	"error":                             KindError,
}

// Diagnostic reports whether the event is logged for observability only,
// with no state change.
func (e Event) Diagnostic() bool {
	switch e.Kind {
	case KindSessionCreated, KindSessionUpdated, KindResponseDone,
		KindSpeechStarted, KindSpeechStopped, KindBufferCommitted,
		KindRateLimits:
		return true
	}
	return false
}

type wireEvent struct {
	Type    string `json:"type"`
	Delta   string `json:"delta,omitempty"`
	Content string `json:"content,omitempty"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ParseEvent decodes one frame from the Realtime connection. A frame that
// is not JSON or lacks a type tag is a local error: log and skip it.
func ParseEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("realtime: malformed event: %w", err)
	}
	if w.Type == "" {
		return Event{}, fmt.Errorf("realtime: event missing type tag")
	}

	ev := Event{
		Kind:    kinds[w.Type],
		Type:    w.Type,
		Delta:   w.Delta,
		Content: w.Content,
	}
	if w.Error != nil {
		ev.ErrorMessage = w.Error.Message
	}
	return ev, nil
}
