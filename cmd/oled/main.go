// Command oled is the real-time audio host: it opens a portaudio output
// stream, drives the engine's per-callback Process loop, applies queued
// commands between buffers, and serves the websocket state feed
// (§4.7 "Engine state and command bus", §4.1 OVERVIEW performance loop).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"github.com/vividhyeok/ole/internal/config"
	"github.com/vividhyeok/ole/internal/engine"
	"github.com/vividhyeok/ole/internal/transport"
)

func main() {
	cfg := config.Parse()
	log.SetLevel(parseLevel(cfg.LogLevel))

	e := engine.New(float64(cfg.SampleRate), cfg.CallbackFrames)

	if err := portaudio.Initialize(); err != nil {
		log.Fatal("portaudio init failed", "error", err)
	}
	defer portaudio.Terminate()

	interleaved := make([]float32, cfg.CallbackFrames*2)

	audioCallback := func(out [][]float32) {
		drainCommands(e)

		n := len(out[0])
		need := n * 2
		if cap(interleaved) < need {
			interleaved = make([]float32, need)
		}
		buf := interleaved[:need]

		e.Process(buf)

		for i := 0; i < n; i++ {
			out[0][i] = buf[2*i]
			out[1][i] = buf[2*i+1]
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(cfg.SampleRate), cfg.CallbackFrames, audioCallback)
	if err != nil {
		log.Fatal("failed to open output stream", "error", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		log.Fatal("failed to start output stream", "error", err)
	}
	defer stream.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.PublishLoop(ctx)

	hub := transport.NewHub()
	go hub.Run(e.Events)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeHTTP)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: cfg.WebSocketAddr, Handler: mux}
	go func() {
		log.Info("state feed listening", "addr", cfg.WebSocketAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("websocket server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	e.Commands <- engine.Command{Kind: engine.CmdShutdown}
	cancel()
	server.Shutdown(context.Background())
}

// drainCommands applies every command queued since the last callback,
// called from the audio thread itself immediately before Process so
// Apply and Process never run concurrently (§5: engine state belongs
// exclusively to the callback; commands are applied between buffers,
// never from a separate goroutine).
func drainCommands(e *engine.Engine) {
	for {
		select {
		case cmd := <-e.Commands:
			e.Apply(cmd)
		default:
			return
		}
	}
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
