// Package server exposes the HTTP surface: the inbound-call webhook that
// returns the call-control document, and the media-stream WebSocket
// endpoint that bridges each call to the Realtime API.
package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/voxline/go-dialbridge/internal/log"
	"github.com/voxline/go-dialbridge/pkg/bridge"
	"github.com/voxline/go-dialbridge/pkg/realtime"
	"github.com/voxline/go-dialbridge/pkg/transcript"
	"github.com/voxline/go-dialbridge/pkg/twiml"
)

// Persona and voice settings for every call.
const (
	systemMessage = "You are an AI assistant specializing in loan details collection, specifically for Indian clients. " +
		"Your task is to interact with the client in a friendly, polite, and culturally appropriate Indian tone. " +
		"You should carefully ask for their personal and loan details, such as their name, address, loan amount, loan purpose, " +
		"and other relevant details. Use common Indian expressions and ensure that you respond in an approachable, respectful, " +
		"and professional manner. If the client uses Hindi, Gujarati, or other Indian languages, you should respond in the same language."

	voice       = "alloy"
	temperature = 0.8
)

// Options configures the server.
type Options struct {
	// OpenAIKey is the Realtime API credential. Required.
	OpenAIKey string

	// Store receives each finished transcript.
	Store transcript.Store

	// RealtimeURL overrides the Realtime endpoint, mainly for tests.
	RealtimeURL string

	// Debug enables per-request logging.
	Debug bool
}

// Server handles inbound calls and their media streams.
type Server struct {
	app  *fiber.App
	opts Options
}

// New builds the fiber app and its routes.
func New(opts Options) *Server {
	s := &Server{opts: opts}

	app := fiber.New(fiber.Config{
		AppName:               "dialbridge",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if opts.Debug {
		app.Use(logger.New())
	}

	app.Get("/", s.handleIndex)
	app.Get("/incoming-call", s.handleIncomingCall)
	app.Post("/incoming-call", s.handleIncomingCall)

	app.Use("/media-stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/media-stream", websocket.New(s.handleMediaStream))

	s.app = app
	return s
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Twilio Media Stream Server is running!",
	})
}

// handleIncomingCall answers the call-setup webhook with a call-control
// document: two short prompts, then a media stream back to this host.
func (s *Server) handleIncomingCall(c *fiber.Ctx) error {
	doc := twiml.New().
		Say("Please wait while we connect your call to the AI voice assistant, powered by Twilio and OpenAI.").
		Pause(1).
		Say("OK, you can start talking!").
		ConnectStream("wss://" + c.Hostname() + "/media-stream")

	c.Set(fiber.HeaderContentType, "application/xml")
	return c.SendString(doc.String())
}

// handleMediaStream owns one call end to end: it dials and configures the
// Realtime connection, then runs the bridge until both directions finish.
// A failed handshake aborts the call before any relay starts.
func (s *Server) handleMediaStream(conn *websocket.Conn) {
	session := bridge.NewSession()
	callLog := log.WithCall(session.ID)
	callLog.Info("caller connected")

	ai, err := realtime.Dial(realtime.Config{
		APIKey: s.opts.OpenAIKey,
		URL:    s.opts.RealtimeURL,
	})
	if err != nil {
		callLog.Error("realtime connection failed", "error", err)
		return
	}
	defer ai.Close()

	err = ai.ConfigureSession(realtime.SessionConfig{
		Instructions: systemMessage,
		Voice:        voice,
		Temperature:  temperature,
	})
	if err != nil {
		callLog.Error("session configuration failed", "error", err)
		return
	}

	b := bridge.New(session, conn, ai, s.opts.Store)
	if err := b.Run(); err != nil {
		callLog.Error("transcript persistence failed", "error", err)
	}
}
