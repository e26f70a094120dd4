package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/legal-approval/internal/application/service"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/domain/entity"
)

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "container.db")
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Workflow.MaxRetries = 0
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c, err := NewContainer(testConfig(t), zap.New(core))
	require.NoError(t, err)

	assert.False(t, c.Ready())
	assert.False(t, c.Health().Overall)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start")

	health := c.Health()
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)

	ctx := context.Background()
	snap, err := c.Services().Submissions.Create(ctx, service.CreateSubmissionInput{
		FormID: 1,
		Title:  "Lease renewal",
	})
	require.NoError(t, err)

	_, err = c.WorkflowEngine().Submit(ctx, snap.Submission.ID, []entity.ApproverAssignment{
		{Role: entity.RoleBUM, Email: "bum@corp.example"},
	}, workflow.Actor{})
	require.NoError(t, err)

	// audit subscriber runs asynchronously
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Submission event").Len() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close")
	assert.Error(t, c.Start(context.Background()), "start after close")
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("id", 7, 42, "skipped", "error", assert.AnError, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)
}
