package bridge

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/voxline/go-dialbridge/pkg/transcript"
)

// Session is the per-call state shared by the two relay directions. Each
// field has a single writer: the inbound relay owns the stream SID, the
// outbound relay owns the caller name and transcript. The mutex makes
// cross-goroutine reads safe; it never sees write-write contention.
type Session struct {
	// ID correlates the two relay directions in logs.
	ID string

	mu         sync.RWMutex
	streamSID  string
	callerName string
	transcript strings.Builder
}

// NewSession creates the state for one call. The caller name starts at
// the fallback used when no name is ever captured.
func NewSession() *Session {
	return &Session{
		ID:         uuid.NewString(),
		callerName: transcript.DefaultName,
	}
}

// SetStreamSID records the stream identifier from the start frame.
// Written only by the inbound relay.
func (s *Session) SetStreamSID(sid string) {
	s.mu.Lock()
	s.streamSID = sid
	s.mu.Unlock()
}

// StreamSID returns the stream identifier, or "" before the start frame
// has arrived.
func (s *Session) StreamSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSID
}

// AppendUtterance appends one finalized assistant utterance to the
// transcript. Written only by the outbound relay, in arrival order.
func (s *Session) AppendUtterance(text string) {
	s.mu.Lock()
	s.transcript.WriteString("AI: ")
	s.transcript.WriteString(text)
	s.transcript.WriteString("\n")
	s.mu.Unlock()
}

// Transcript returns the accumulated conversation log.
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript.String()
}

// SetCallerName records the caller's name if none has been captured yet.
// The first hit wins; later candidates are ignored. Returns whether the
// name was recorded.
func (s *Session) SetCallerName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callerName != transcript.DefaultName {
		return false
	}
	s.callerName = name
	return true
}

// CallerName returns the captured name, or the fallback.
func (s *Session) CallerName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callerName
}
