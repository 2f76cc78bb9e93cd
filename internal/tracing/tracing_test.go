package tracing

import (
	"context"
	"fmt"
	"testing"

	"voterdesk/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "voterdesk", config.ServiceName)
	assert.Equal(t, "dev", config.ServiceVersion)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "http://localhost:4318/v1/traces", config.OTLPEndpoint)
	assert.Equal(t, 0.1, config.SampleRate)
	assert.False(t, config.Enabled)
	assert.True(t, config.UseStdout)
}

func TestManagerDisabledIsNoop(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	manager := NewManager(models.TracingConfig{Enabled: false}, logger)

	require.NoError(t, manager.Initialize(context.Background()))
	require.NoError(t, manager.Shutdown(context.Background()))
}

func TestManagerStdoutLifecycle(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	manager := NewManager(models.TracingConfig{
		ServiceName:    "voterdesk-test",
		ServiceVersion: "test",
		Environment:    "test",
		SampleRate:     1.0,
		Enabled:        true,
		UseStdout:      true,
	}, logger)

	require.NoError(t, manager.Initialize(context.Background()))

	ctx, span := StartSpan(context.Background(), "test_operation",
		attribute.String("conversation_id", "c-1"),
	)
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(ctx, fmt.Errorf("test error"))
	span.End()

	require.NoError(t, manager.Shutdown(context.Background()))
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}
