package app_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ferry/internal/adapters/logger"
	"go.trai.ch/ferry/internal/app"
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/ferry/internal/core/ports/mocks"
	"go.trai.ch/ferry/internal/engine/reactor"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	engines   *mocks.MockEngineFactory
	resolvers *mocks.MockResolverFactory
	stream    *mocks.MockRelay
	datagram  *mocks.MockRelay
	resolver  *mocks.MockResolver
	logger    *mocks.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	return &fixture{
		engines:   mocks.NewMockEngineFactory(ctrl),
		resolvers: mocks.NewMockResolverFactory(ctrl),
		stream:    mocks.NewMockRelay(ctrl),
		datagram:  mocks.NewMockRelay(ctrl),
		resolver:  mocks.NewMockResolver(ctrl),
		logger:    log,
	}
}

func (f *fixture) app() *app.App {
	return app.New(f.engines, f.resolvers, f.stream, f.datagram, f.logger)
}

// realEngine backs the engine factory with the reactor and records the config it was given.
func (f *fixture) realEngine(got **domain.Config) {
	factory := reactor.NewFactory(f.logger)
	f.engines.EXPECT().NewEngine(gomock.Any()).DoAndReturn(func(cfg *domain.Config) (ports.Engine, error) {
		if got != nil {
			*got = cfg
		}
		return factory.NewEngine(cfg)
	})
}

func taskReturning(err error) domain.Task {
	return func(context.Context) error { return err }
}

func untilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func config(enableUDP bool, capacity int) domain.Config {
	return domain.Config{
		Servers:          []domain.ServerConfig{{Listen: "127.0.0.1:0", Target: "127.0.0.1:9"}},
		EnableUDP:        enableUDP,
		DNSCacheCapacity: capacity,
	}
}

func TestShapeOf(t *testing.T) {
	assert.Equal(t, app.StreamOnly, app.ShapeOf(&domain.Config{}))
	assert.Equal(t, app.StreamAndDatagram, app.ShapeOf(&domain.Config{EnableUDP: true}))
	assert.Equal(t, "stream", app.StreamOnly.String())
	assert.Equal(t, "stream+datagram", app.StreamAndDatagram.String())
	assert.Equal(t, "unknown", app.Shape(7).String())
}

func TestApp_Run_StreamOnlyForwardsStreamError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		cfg := config(false, 256)
		streamErr := zerr.New("stream relay failed")

		f.realEngine(nil)
		f.resolvers.EXPECT().NewResolver(256, cfg.DNS).Return(f.resolver)
		f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), f.resolver).Return(taskReturning(streamErr))
		f.datagram.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := f.app().Run(t.Context(), cfg)

		require.Error(t, err)
		assert.Same(t, streamErr, err, "the stream error is returned unwrapped")
	})
}

func TestApp_Run_RelaysShareConfigAndResolver(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		cfg := config(true, 0)

		var engineCfg, streamCfg, datagramCfg *domain.Config
		var streamHandle, datagramHandle ports.EngineHandle
		var streamRes, datagramRes ports.Resolver

		f.realEngine(&engineCfg)
		f.resolvers.EXPECT().NewResolver(0, cfg.DNS).Return(f.resolver).Times(1)
		f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(c *domain.Config, h ports.EngineHandle, r ports.Resolver) domain.Task {
				streamCfg, streamHandle, streamRes = c, h, r
				return taskReturning(nil)
			})
		f.datagram.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(c *domain.Config, h ports.EngineHandle, r ports.Resolver) domain.Task {
				datagramCfg, datagramHandle, datagramRes = c, h, r
				return taskReturning(nil)
			})

		require.NoError(t, f.app().Run(t.Context(), cfg))

		require.NotNil(t, streamCfg)
		assert.Same(t, engineCfg, streamCfg)
		assert.Same(t, streamCfg, datagramCfg)
		assert.Same(t, streamHandle, datagramHandle)
		assert.Same(t, f.resolver, streamRes)
		assert.Same(t, streamRes, datagramRes)
		assert.Zero(t, streamCfg.DNSCacheCapacity)
	})
}

func TestApp_Run_StreamFailureDoesNotWaitForDatagram(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		streamErr := zerr.New("bind refused")
		release := make(chan struct{})

		f.realEngine(nil)
		f.resolvers.EXPECT().NewResolver(gomock.Any(), gomock.Any()).Return(f.resolver)
		f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(taskReturning(streamErr))
		// The datagram relay ignores cancellation entirely.
		f.datagram.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Task(func(context.Context) error {
			<-release
			return nil
		}))

		done := make(chan error, 1)
		go func() { done <- f.app().Run(t.Context(), config(true, 16)) }()
		synctest.Wait()

		select {
		case err := <-done:
			assert.Same(t, streamErr, err)
		default:
			t.Fatal("Run is waiting for the datagram relay")
		}
		close(release)
	})
}

func TestApp_Run_DatagramFailureEndsRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		datagramErr := errors.Join(domain.ErrListenFailed, errors.New("address in use"))

		f.realEngine(nil)
		f.resolvers.EXPECT().NewResolver(gomock.Any(), gomock.Any()).Return(f.resolver)
		f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Task(untilCancelled))
		f.datagram.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(taskReturning(datagramErr))

		err := f.app().Run(t.Context(), config(true, 16))

		require.ErrorIs(t, err, domain.ErrListenFailed)
		assert.Same(t, datagramErr, err)
	})
}

func TestApp_Run_BlocksWhileDatagramRuns(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)

		f.realEngine(nil)
		f.resolvers.EXPECT().NewResolver(gomock.Any(), gomock.Any()).Return(f.resolver)
		f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(taskReturning(nil))
		f.datagram.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Task(untilCancelled))

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- f.app().Run(ctx, config(true, 16)) }()

		time.Sleep(time.Hour)
		synctest.Wait()
		select {
		case err := <-done:
			t.Fatalf("Run returned before the datagram relay: %v", err)
		default:
		}

		cancel()
		synctest.Wait()
		select {
		case err := <-done:
			require.NoError(t, err)
		default:
			t.Fatal("Run did not return after cancellation")
		}
	})
}

func TestApp_Run_EngineFailureBuildsNothing(t *testing.T) {
	f := newFixture(t)
	initErr := errors.Join(domain.ErrEngineInit, errors.New("nofile 1048576 above hard limit"))

	f.engines.EXPECT().NewEngine(gomock.Any()).Return(nil, initErr)
	f.resolvers.EXPECT().NewResolver(gomock.Any(), gomock.Any()).Times(0)
	f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.datagram.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := f.app().Run(t.Context(), config(true, 16))

	require.ErrorIs(t, err, domain.ErrEngineInit)
	assert.Same(t, initErr, err)
}

func TestApp_Run_AppliesLogConfig(t *testing.T) {
	tests := []struct {
		name     string
		log      domain.LogConfig
		contains string
		absent   string
	}{
		{
			name:     "json at info",
			log:      domain.LogConfig{Level: slog.LevelInfo, JSON: true},
			contains: `"msg":"starting relays"`,
		},
		{
			name:   "warn hides info",
			log:    domain.LogConfig{Level: slog.LevelWarn},
			absent: "starting relays",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var buf bytes.Buffer
			log := logger.New()
			log.SetOutput(&buf)

			f.realEngine(nil)
			f.resolvers.EXPECT().NewResolver(gomock.Any(), gomock.Any()).Return(f.resolver)
			f.stream.EXPECT().Task(gomock.Any(), gomock.Any(), gomock.Any()).Return(taskReturning(nil))

			cfg := config(false, 16)
			cfg.Log = tt.log
			a := app.New(f.engines, f.resolvers, f.stream, f.datagram, log)
			require.NoError(t, a.Run(t.Context(), cfg))

			if tt.contains != "" {
				assert.Contains(t, buf.String(), tt.contains)
			}
			if tt.absent != "" {
				assert.NotContains(t, buf.String(), tt.absent)
			}
		})
	}
}
