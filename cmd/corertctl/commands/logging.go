package commands

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/roasbeef/corert/internal/corert/actor"
	"github.com/roasbeef/corert/internal/corert/sched"
)

const (
	logMaxFiles  = 10
	logMaxSizeKB = 20 * 1024
	logFilename  = "corertctl.log"
)

var activeRotator *rotatingFile

// setupLogging wires a console (and, if logDir is set, rotating file)
// btclog handler into every package that exposes UseLogger, fanning both
// streams out through fanoutHandler so a single log call lands in both
// without either package knowing the other exists.
func setupLogging(logDir string) error {
	dest := []btclog.Handler{btclog.NewDefaultHandler(os.Stderr)}

	if logDir != "" {
		rf, err := newRotatingFile(logDir, logFilename)
		if err != nil {
			return err
		}
		activeRotator = rf
		dest = append(dest, btclog.NewDefaultHandler(rf))
	}

	logger := btclog.NewSLogger(newFanoutHandler(dest...))

	actor.UseLogger(logger)
	sched.UseLogger(logger)
	return nil
}

func closeLogging() {
	if activeRotator != nil {
		activeRotator.Close()
	}
}

// fanoutHandler dispatches every log record to each of a fixed set of
// handlers. It backs corertctl's simultaneous console+file streams.
type fanoutHandler struct {
	level btclog.Level
	dest  []btclog.Handler
}

func newFanoutHandler(dest ...btclog.Handler) *fanoutHandler {
	h := &fanoutHandler{dest: dest}
	h.SetLevel(btclog.LevelInfo)
	return h
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, d := range h.dest {
		if !d.Enabled(ctx, level) {
			return false
		}
	}
	return true
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, d := range h.dest {
		if err := d.Handle(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newDest := make([]slog.Handler, len(h.dest))
	for i, d := range h.dest {
		newDest[i] = d.WithAttrs(attrs)
	}
	return &slogFanout{dest: newDest}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	newDest := make([]slog.Handler, len(h.dest))
	for i, d := range h.dest {
		newDest[i] = d.WithGroup(name)
	}
	return &slogFanout{dest: newDest}
}

func (h *fanoutHandler) SubSystem(tag string) btclog.Handler {
	newDest := make([]btclog.Handler, len(h.dest))
	for i, d := range h.dest {
		newDest[i] = d.SubSystem(tag)
	}
	return &fanoutHandler{dest: newDest, level: h.level}
}

func (h *fanoutHandler) WithPrefix(prefix string) btclog.Handler {
	newDest := make([]btclog.Handler, len(h.dest))
	for i, d := range h.dest {
		newDest[i] = d.WithPrefix(prefix)
	}
	return &fanoutHandler{dest: newDest, level: h.level}
}

func (h *fanoutHandler) SetLevel(level btclog.Level) {
	for _, d := range h.dest {
		d.SetLevel(level)
	}
	h.level = level
}

func (h *fanoutHandler) Level() btclog.Level { return h.level }

var _ btclog.Handler = (*fanoutHandler)(nil)

// slogFanout is what WithAttrs/WithGroup return: the btclog.Handler
// interface downgrades both to plain slog.Handler, since neither operation
// needs the btclog-specific SubSystem/SetLevel surface afterward.
type slogFanout struct {
	dest []slog.Handler
}

func (s *slogFanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, d := range s.dest {
		if !d.Enabled(ctx, level) {
			return false
		}
	}
	return true
}

func (s *slogFanout) Handle(ctx context.Context, record slog.Record) error {
	for _, d := range s.dest {
		if err := d.Handle(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *slogFanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	newDest := make([]slog.Handler, len(s.dest))
	for i, d := range s.dest {
		newDest[i] = d.WithAttrs(attrs)
	}
	return &slogFanout{dest: newDest}
}

func (s *slogFanout) WithGroup(name string) slog.Handler {
	newDest := make([]slog.Handler, len(s.dest))
	for i, d := range s.dest {
		newDest[i] = d.WithGroup(name)
	}
	return &slogFanout{dest: newDest}
}

var _ slog.Handler = (*slogFanout)(nil)

// rotatingFile is a pipe-fed jrick/logrotate rotator sized and named for
// corertctl's own log directory, gzip-compressing rotated-out files.
type rotatingFile struct {
	pipe *io.PipeWriter
	rot  *rotator.Rotator
}

func newRotatingFile(dir, filename string) (*rotatingFile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rot, err := rotator.New(filepath.Join(dir, filename), logMaxSizeKB, false, logMaxFiles)
	if err != nil {
		return nil, fmt.Errorf("create file rotator: %w", err)
	}
	rot.SetCompressor(gzip.NewWriter(nil), ".gz")

	pr, pw := io.Pipe()
	go func() {
		if err := rot.Run(pr); err != nil {
			fmt.Fprintf(os.Stderr, "log rotator stopped: %v\n", err)
		}
	}()

	return &rotatingFile{pipe: pw, rot: rot}, nil
}

func (r *rotatingFile) Write(p []byte) (int, error) { return r.pipe.Write(p) }

func (r *rotatingFile) Close() error { return r.pipe.Close() }
