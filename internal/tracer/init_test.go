package tracer

import (
	"context"
	"testing"

	"vehicle-rag-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabledIsNoop(t *testing.T) {
	shutdown := InitTracer(context.Background(), Config{Enabled: false}, logger.NewNopLogger())
	assert.NoError(t, shutdown(context.Background()))
}
