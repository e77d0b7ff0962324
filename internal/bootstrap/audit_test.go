package bootstrap_test

import (
	"context"
	"testing"

	"go-portal/internal/bootstrap"
	"go-portal/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutAuditLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := bootstrap.NewStdoutAuditLogger(zap.New(core))

	ctx := contextutil.WithRequestID(context.Background(), "rid-9")
	audit.Log(ctx, bootstrap.AuditLog{
		Action:  "SEED_BATCH_COMPLETED",
		Message: "seed finished",
		Meta:    map[string]any{"failed": 0},
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "SEED_BATCH_COMPLETED", fields["action"])
	assert.Equal(t, "rid-9", fields["request_id"])
}
