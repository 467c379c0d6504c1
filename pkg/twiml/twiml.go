// Package twiml renders the call-control documents returned to the
// telephony platform for inbound calls.
package twiml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>`

// Document builds a TwiML response. Verbs render in the order they are
// added, which is the order the platform executes them.
type Document struct {
	verbs []string
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// Say speaks text to the caller.
func (d *Document) Say(text string) *Document {
	d.verbs = append(d.verbs, fmt.Sprintf("<Say>%s</Say>", escape(text)))
	return d
}

// Pause waits for the given number of seconds.
func (d *Document) Pause(seconds int) *Document {
	d.verbs = append(d.verbs, fmt.Sprintf(`<Pause length="%d"/>`, seconds))
	return d
}

// ConnectStream instructs the platform to open a bidirectional media
// stream to the given WebSocket URL. The call audio flows over that
// connection until one side hangs up.
func (d *Document) ConnectStream(url string) *Document {
	d.verbs = append(d.verbs, fmt.Sprintf(`<Connect><Stream url="%s"/></Connect>`, escape(url)))
	return d
}

// String renders the full XML document.
func (d *Document) String() string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n<Response>")
	for _, v := range d.verbs {
		b.WriteString(v)
	}
	b.WriteString("</Response>")
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails on a failing writer; bytes.Buffer never does.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
