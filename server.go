package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"ctrl.dev/mpcd/api"
	"ctrl.dev/mpcd/settings"
	"ctrl.dev/mpcd/utils"
)

const maxTelemetryLine = 1 << 20

// Server accepts vehicle connections and runs one controller pipeline per
// connection. Connections are fully independent: a long solve on one never
// blocks another.
type Server struct {
	Addr   string
	Status *api.Status

	connSeq atomic.Uint64
}

func (s *Server) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrap(err, "could not listen for telemetry")
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	slog.Info("listening for telemetry", "addr", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "telemetry accept failed")
		}
		id := fmt.Sprintf("sim-%d", s.connSeq.Add(1))
		go s.handleConn(ctx, conn, id)
	}
}

// handleConn splits one connection into a reader and a worker. The reader
// conflates queued telemetry so the worker always plans from the freshest
// snapshot, and cancels an in-flight solve when a newer snapshot lands:
// superseded results are stale and get abandoned, never queued.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, id string) {
	defer conn.Close()
	if s.Status != nil {
		defer s.Status.Remove(id)
	}
	slog.Info("vehicle connected", "conn", id, "remote", conn.RemoteAddr())

	controller := NewController(&settings.Settings)

	var mu sync.Mutex
	var cancelSolve context.CancelFunc
	setCancel := func(cancel context.CancelFunc) {
		mu.Lock()
		cancelSolve = cancel
		mu.Unlock()
	}
	supersede := func() {
		mu.Lock()
		if cancelSolve != nil {
			cancelSolve()
		}
		mu.Unlock()
	}

	latest := make(chan []byte, 1)
	go func() {
		defer close(latest)
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), maxTelemetryLine)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			if len(line) == 0 {
				continue
			}
			offerTelemetry(latest, line, supersede)
		}
		if err := scanner.Err(); err != nil {
			slog.Debug("telemetry read ended", "conn", id, "error", err)
		}
	}()

	encoder := json.NewEncoder(conn)
	for {
		var line []byte
		var ok bool
		select {
		case <-ctx.Done():
			return
		case line, ok = <-latest:
			if !ok {
				slog.Info("vehicle disconnected", "conn", id)
				return
			}
		}

		var t Telemetry
		if err := json.Unmarshal(line, &t); err != nil {
			utils.Logde(errors.Wrap(err, "could not decode telemetry"))
			continue
		}

		cycleCtx, cancel := context.WithCancel(ctx)
		setCancel(cancel)
		cmd, err := controller.RunCycle(cycleCtx, &t)
		setCancel(nil)
		superseded := cycleCtx.Err() != nil && ctx.Err() == nil
		cancel()

		if superseded {
			slog.Debug("cycle superseded by fresh telemetry", "conn", id)
			continue
		}
		if s.Status != nil {
			s.Status.Update(controller.Status(id, err))
		}
		if err != nil {
			slog.Warn("cycle failed", "conn", id, "class", errClass(err), "error", err)
		}
		if cmd == nil {
			// Input failure: skip the cycle, the vehicle holds its
			// previous actuation.
			continue
		}

		if err := encoder.Encode(cmd); err != nil {
			utils.Logde(errors.Wrap(err, "could not write command"))
			return
		}
	}
}

// offerTelemetry hands a fresh snapshot to the worker, replacing any queued
// stale one. Whatever the worker holds is now superseded: an empty queue
// means it is mid-solve on older telemetry, so the abort fires on every
// enqueue, not only on conflation. supersede is a no-op while the worker is
// idle.
func offerTelemetry(latest chan []byte, line []byte, supersede func()) {
	select {
	case latest <- line:
	default:
		select {
		case <-latest:
		default:
		}
		latest <- line
	}
	supersede()
}
