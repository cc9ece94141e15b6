package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ferry/internal/adapters/logger"
)

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{name: "debug", level: slog.LevelDebug, want: "· msg\n"},
		{name: "info", level: slog.LevelInfo, want: "msg\n"},
		{name: "warn", level: slog.LevelWarn, want: "! msg\n"},
		{name: "error", level: slog.LevelError, want: "✗ msg\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			lg.Log(t.Context(), tt.level, "msg")

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h slog.Handler) slog.Handler
		args  []any
		want  string
	}{
		{
			name:  "record attrs",
			setup: func(h slog.Handler) slog.Handler { return h },
			args:  []any{"a", "1", "b", 2},
			want:  "msg a=1 b=2\n",
		},
		{
			name: "handler attrs precede record attrs",
			setup: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("server", "dns")})
			},
			args: []any{"peer", "10.0.0.1:5353"},
			want: "msg server=dns peer=10.0.0.1:5353\n",
		},
		{
			name: "nested groups",
			setup: func(h slog.Handler) slog.Handler {
				return h.WithGroup("a").WithGroup("b")
			},
			args: []any{"k", "v"},
			want: "msg a.b.k=v\n",
		},
		{
			name:  "group attribute",
			setup: func(h slog.Handler) slog.Handler { return h },
			args:  []any{slog.Group("udp", slog.Int("assoc", 3))},
			want:  "msg udp.assoc=3\n",
		},
		{
			name: "attrs keep the group active when added",
			setup: func(h slog.Handler) slog.Handler {
				return h.WithGroup("req").WithAttrs([]slog.Attr{slog.String("id", "1")}).WithGroup("")
			},
			args: []any{"extra", "x"},
			want: "msg req.id=1 req.extra=x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			h := tt.setup(logger.NewPrettyHandler(buf, nil))
			slog.New(h).Info("msg", tt.args...)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	levelVar := &slog.LevelVar{}
	h := logger.NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: levelVar})

	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))

	levelVar.Set(slog.LevelDebug)
	assert.True(t, h.Enabled(t.Context(), slog.LevelDebug))
}

func TestPrettyHandler_NilWriter(t *testing.T) {
	require.NotPanics(t, func() {
		_ = logger.NewPrettyHandler(nil, nil)
	})
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken")
}

func TestPrettyHandler_Handle_ReturnsError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	h := logger.NewPrettyHandler(brokenWriter{}, nil)
	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "msg", 0)

	require.Error(t, h.Handle(t.Context(), r))
}
