// Package twilio defines the Twilio Media Streams wire protocol: the
// text-framed JSON events exchanged over the media-stream WebSocket.
package twilio

import (
	"encoding/json"
	"fmt"
)

// Media Streams event names.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
)

// Message is one inbound frame from the media stream. Exactly one of the
// nested payloads is set, matching the Event tag.
type Message struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Stop      *StopPayload  `json:"stop,omitempty"`
}

// StartPayload carries stream metadata sent once when the stream opens.
type StartPayload struct {
	StreamSID    string            `json:"streamSid"`
	AccountSID   string            `json:"accountSid"`
	CallSID      string            `json:"callSid"`
	Tracks       []string          `json:"tracks"`
	MediaFormat  MediaFormat       `json:"mediaFormat"`
	CustomParams map[string]string `json:"customParameters"`
}

// MediaFormat describes the audio encoding of the stream.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// MediaPayload carries one chunk of base64-encoded audio.
type MediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// StopPayload is sent once before Twilio closes the stream.
type StopPayload struct {
	AccountSID string `json:"accountSid"`
	CallSID    string `json:"callSid"`
}

// Decode parses one inbound frame. A frame that is not valid JSON or has
// no event tag is a local error: the caller logs it and skips the frame.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("twilio: malformed frame: %w", err)
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("twilio: frame missing event tag")
	}
	return msg, nil
}

// MediaFrame is an outbound media event, stamped with the stream SID so
// Twilio can route the audio onto the right call.
type MediaFrame struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

// NewMediaFrame wraps a base64 audio payload for delivery to the caller.
// The payload string is forwarded exactly as produced upstream.
func NewMediaFrame(streamSID, payload string) MediaFrame {
	return MediaFrame{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     MediaPayload{Payload: payload},
	}
}
