package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/lanternkv/lantern/internal/config"
	"github.com/lanternkv/lantern/internal/keyspace"
	"github.com/lanternkv/lantern/internal/logger"
	"github.com/lanternkv/lantern/internal/resp"
	"github.com/lanternkv/lantern/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// listenBacklog is the backlog value reported in the "listening" log line.
// net.Listen takes no backlog argument, so it is not applied to the
// listener; the kernel's queue of not-yet-accepted connections uses the
// operating system's default length. Neither bounds the total number of
// concurrent connections.
const listenBacklog = 10

// handleConnection drives one client's request/reply loop: read a frame,
// dispatch it, write the reply, repeat until the client disconnects or a
// read/write fails. Each connection runs on its own goroutine, so replies
// within a connection are naturally ordered by this loop being the only
// reader and writer of that connection's Peer.
func handleConnection(conn net.Conn, engine *server.Engine, log *zap.Logger) {
	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("client connected", zap.String("addr", conn.RemoteAddr().String()))
	}

	peer := server.NewPeer(conn)
	defer func() {
		peer.Close() //nolint:errcheck
		if log.Core().Enabled(zap.DebugLevel) {
			log.Debug("client disconnected", zap.String("addr", conn.RemoteAddr().String()))
		}
	}()

	for {
		cmdValue, err := peer.ReadCommand()
		if err != nil {
			if err != io.EOF {
				log.Warn("malformed request, closing connection", zap.Error(err))
			}
			return
		}

		if cmdValue.Type != resp.TypeArray || cmdValue.IsNull {
			log.Error("malformed request frame, closing connection")
			return
		}

		result := engine.Execute(cmdValue.Array)

		if err := peer.Send(result); err != nil {
			log.Error("error writing response", zap.Error(err))
			return
		}

		if peer.InputBuffered() == 0 {
			if err := peer.Flush(); err != nil {
				return
			}
		}
	}
}

// resolvePort applies spec.md §6's CLI surface: the first positional
// argument, if present, overrides the configured port; a non-numeric value
// is a fatal startup error.
func resolvePort(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return nil
	}
	if _, err := strconv.Atoi(args[1]); err != nil {
		return errors.New("PORT must be a decimal integer")
	}
	cfg.Server.Port = args[1]
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	if err := resolvePort(cfg, os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}

	log, atomicLevel := logger.NewAtomic(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync() //nolint:errcheck

	config.Watch(func(updated *config.Config) {
		if lvl, err := zapcore.ParseLevel(updated.Log.Level); err == nil {
			atomicLevel.SetLevel(lvl)
			log.Info("log level reloaded", zap.String("level", updated.Log.Level))
		}
	})

	log.Info("lantern starting",
		zap.String("port", cfg.Server.Port),
		zap.Uint("shards", cfg.Storage.Shards),
	)

	ks, err := keyspace.New(cfg.Storage.Shards)
	if err != nil {
		log.Error("cannot initialize keyspace", zap.Error(err))
		return 1
	}

	engine, err := server.NewEngine(ks, cfg, log)
	if err != nil {
		log.Error("cannot initialize engine", zap.Error(err))
		return 1
	}

	address := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("listener error", zap.Error(err))
		return 1
	}
	log.Info("listening", zap.String("address", address), zap.Int("backlog", listenBacklog))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				log.Error("accept error", zap.Error(err))
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				handleConnection(conn, engine, log)
			}()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	listener.Close() //nolint:errcheck
	engine.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("all connections closed gracefully")
	case <-shutdownCtx.Done():
		log.Warn("shutdown timed out, forcing exit", zap.Duration("timeout", 5*time.Second))
	}

	if err := engine.SaveSnapshot(); err != nil {
		log.Error("final snapshot failed", zap.Error(err))
	}

	log.Info("lantern stopped")

	if sig := ctx.Err(); sig != nil {
		return 128 + int(syscall.SIGINT)
	}
	return 0
}
