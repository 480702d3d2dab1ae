package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/cartd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lognoop "go.opentelemetry.io/otel/log/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func bufferLogger(t *testing.T, mutate func(*Config)) (*Logger, *bytes.Buffer) {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	cfg.Level = TraceLevel
	if mutate != nil {
		mutate(cfg)
	}
	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf, nil)
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestNewLogger_OTELOnly(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{OTEL: true}

	logger, err := NewLogger(cfg, lognoop.NewLoggerProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		logger.Info(context.Background(), "cart hydrated", zap.Int("lines", 2))
	})
}

func TestLogger_Levels(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}
	ctx := context.Background()

	logger.Trace(ctx, "trace message")
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	entries := observed.All()
	require.Len(t, entries, 5)
	assert.Equal(t, TraceLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[4].Level)
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := bufferLogger(t, nil)

	logger.Trace(context.Background(), "line dump", zap.Int("lines", 2))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "trace", lines[0]["level"])
	assert.Equal(t, "line dump", lines[0]["msg"])
	assert.Equal(t, "cartd", lines[0]["service"])
	assert.EqualValues(t, 2, lines[0]["lines"])
	assert.Contains(t, lines[0]["caller"], "logger_test.go")
}

func TestLogger_RedactsCallSiteFields(t *testing.T) {
	logger, buf := bufferLogger(t, nil)

	logger.Info(context.Background(), "opening medium",
		zap.String("redis_url", "redis://:hunter2@localhost:6379"),
		zap.String("target", "postgres://cart:s3cret@db:5432/cart"),
		zap.String("driver", "redis"),
		Secret("database_url", config.Secret("abc")),
	)

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cret")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["redis_url"])
	assert.Equal(t, "[REDACTED:pattern]", lines[0]["target"])
	assert.Equal(t, "redis", lines[0]["driver"])
	assert.Equal(t, "[REDACTED]", lines[0]["database_url"])
}

func TestLogger_RedactsWithFields(t *testing.T) {
	logger, buf := bufferLogger(t, nil)

	logger.With(zap.String("password", "pw")).Info(context.Background(), "child")

	assert.NotContains(t, buf.String(), `"pw"`)
}

func TestLogger_RedactionDisabled(t *testing.T) {
	logger, buf := bufferLogger(t, func(c *Config) { c.Redaction.Enabled = false })

	logger.Info(context.Background(), "raw", zap.String("password", "pw"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "pw", lines[0]["password"])
}

func TestLogger_SamplingNeverDropsErrors(t *testing.T) {
	logger, buf := bufferLogger(t, func(c *Config) {
		c.Sampling.Enabled = true
		c.Sampling.Initial = 1
		c.Sampling.Thereafter = 0
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		logger.Info(ctx, "repeated")
		logger.Error(ctx, "failure")
	}

	var infos, errs int
	for _, line := range decodeLines(t, buf) {
		switch line["msg"] {
		case "repeated":
			infos++
		case "failure":
			errs++
		}
	}
	assert.Equal(t, 1, infos)
	assert.Equal(t, 5, errs)
}

func TestLogger_ContextCorrelation(t *testing.T) {
	tl := NewTestLogger()

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	ctx = WithRequestID(ctx, "req-42")
	ctx = WithCartKey(ctx, "vanthu_cart")
	tl.Info(ctx, "added item")

	tl.AssertField(t, "added item", "request.id", "req-42")
	tl.AssertField(t, "added item", "cart.key", "vanthu_cart")
	tl.AssertField(t, "added item", "trace_id", span.SpanContext().TraceID().String())
}

func TestLogger_UnderlyingKeepsCore(t *testing.T) {
	tl := NewTestLogger()

	tl.Underlying().Warn("direct")

	tl.AssertLogged(t, zapcore.WarnLevel, "direct")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "direct")
}

func TestLogger_NamedAndWith(t *testing.T) {
	tl := NewTestLogger()

	tl.Named("store").With(zap.String("driver", "file")).Info(context.Background(), "opened")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "store", entries[0].LoggerName)
	tl.AssertField(t, "opened", "driver", "file")

	tl.Reset()
	assert.Empty(t, tl.All())
}
