// dialbridge: bridges Twilio Media Stream calls to the OpenAI Realtime
// API and stores each finished conversation transcript.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxline/go-dialbridge/internal/config"
	"github.com/voxline/go-dialbridge/internal/log"
	"github.com/voxline/go-dialbridge/pkg/server"
	"github.com/voxline/go-dialbridge/pkg/transcript"
)

var debug = flag.Bool("debug", false, "Enable request logging")

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// No credential means no listener: refuse to start.
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)

	store, err := transcript.NewFileStore(cfg.TranscriptDir)
	if err != nil {
		log.Error("transcript store init failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(server.Options{
		OpenAIKey: cfg.OpenAIKey,
		Store:     store,
		Debug:     *debug,
	})

	go func() {
		log.Info("server listening", "addr", cfg.Addr())
		if err := srv.Listen(cfg.Addr()); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
