// Package bridge relays audio between one telephony media stream and one
// Realtime API connection for the lifetime of a single call.
package bridge

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/voxline/go-dialbridge/internal/log"
	"github.com/voxline/go-dialbridge/pkg/realtime"
	"github.com/voxline/go-dialbridge/pkg/transcript"
	"github.com/voxline/go-dialbridge/pkg/twilio"
)

// TelephonyConn is the server side of the media-stream WebSocket. Both
// gofiber and gorilla connections satisfy it.
type TelephonyConn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteJSON(v any) error
}

// AIConn is the upstream Realtime connection. Reads happen only on the
// outbound relay goroutine; IsOpen is checked by both directions.
type AIConn interface {
	AppendAudio(payload string) error
	Read() ([]byte, error)
	IsOpen() bool
	Close() error
}

// Bridge supervises one call: it runs the two relay loops concurrently,
// waits for both to finish, and persists the transcript exactly once.
type Bridge struct {
	session *Session
	phone   TelephonyConn
	ai      AIConn
	store   transcript.Store
	logger  *slog.Logger
}

// New wires a bridge for one accepted call. The AI connection must
// already be dialed and its session configured.
func New(session *Session, phone TelephonyConn, ai AIConn, store transcript.Store) *Bridge {
	return &Bridge{
		session: session,
		phone:   phone,
		ai:      ai,
		store:   store,
		logger:  log.WithCall(session.ID),
	}
}

// Run blocks until both relay directions have terminated, then hands the
// finished transcript to the store. The call ends when either side
// disconnects; there are no retries.
func (b *Bridge) Run() error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.relayInbound()
	}()
	go func() {
		defer wg.Done()
		b.relayOutbound()
	}()
	wg.Wait()

	b.logger.Info("call finished", "caller", b.session.CallerName())
	return b.store.Save(b.session.CallerName(), b.session.Transcript())
}

// relayInbound pumps frames from the caller to the Realtime API. It ends
// when the telephony connection closes, and closes the AI connection on
// the way out so the outbound relay unblocks.
func (b *Bridge) relayInbound() {
	defer func() {
		if b.ai.IsOpen() {
			_ = b.ai.Close()
		}
	}()

	for {
		_, data, err := b.phone.ReadMessage()
		if err != nil {
			b.logger.Info("caller disconnected")
			return
		}

		msg, err := twilio.Decode(data)
		if err != nil {
			b.logger.Warn("skipping malformed frame", "error", err)
			continue
		}

		switch msg.Event {
		case twilio.EventStart:
			if msg.Start == nil {
				b.logger.Warn("start frame without payload")
				continue
			}
			b.session.SetStreamSID(msg.Start.StreamSID)
			b.logger.Info("incoming stream started", "stream_sid", msg.Start.StreamSID)

		case twilio.EventMedia:
			if msg.Media == nil {
				continue
			}
			// No stream yet: the frame has nowhere to belong. Drop it.
			if b.session.StreamSID() == "" {
				continue
			}
			// AI side already gone: the call is ending, drop silently.
			if !b.ai.IsOpen() {
				continue
			}
			if err := b.ai.AppendAudio(msg.Media.Payload); err != nil {
				b.logger.Warn("audio forward failed", "error", err)
			}

		default:
			// connected, mark, stop and anything else carry no audio.
		}
	}
}

// relayOutbound pumps events from the Realtime API to the caller and
// harvests the transcript. It ends when the AI connection closes or the
// telephony write side fails.
func (b *Bridge) relayOutbound() {
	for {
		data, err := b.ai.Read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Warn("assistant stream failed", "error", err)
			} else {
				b.logger.Info("assistant stream ended")
			}
			return
		}

		ev, err := realtime.ParseEvent(data)
		if err != nil {
			b.logger.Warn("skipping malformed event", "error", err)
			continue
		}

		switch ev.Kind {
		case realtime.KindAudioDelta:
			if ev.Delta == "" {
				continue
			}
			sid := b.session.StreamSID()
			if sid == "" {
				// Synthesized audio can beat the start frame under network
				// jitter. There is no stream to land it on, so drop it.
				b.logger.Debug("dropping audio before stream start")
				continue
			}
			if err := b.phone.WriteJSON(twilio.NewMediaFrame(sid, ev.Delta)); err != nil {
				b.logger.Warn("media frame write failed", "error", err)
				return
			}

		case realtime.KindContentDone:
			b.session.AppendUtterance(ev.Content)
			b.logger.Info("assistant said", "content", ev.Content)
			if name, ok := ExtractName(ev.Content); ok {
				if b.session.SetCallerName(name) {
					b.logger.Info("caller name captured", "name", name)
				}
			}

		case realtime.KindError:
			b.logger.Error("assistant error", "message", ev.ErrorMessage)

		default:
			if ev.Diagnostic() {
				b.logger.Info("realtime event", "type", ev.Type)
			}
		}
	}
}
