package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/application/service"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
	"github.com/garyjia/legal-approval/internal/infrastructure/export"
)

type recordingWriter struct {
	rows []port.RegisterRow
	err  error
}

func (w *recordingWriter) Write(_ context.Context, out io.Writer, rows []port.RegisterRow, _ time.Time) error {
	w.rows = rows
	if w.err != nil {
		return w.err
	}
	_, err := out.Write([]byte("ok"))
	return err
}

func TestRegisterService_Rows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.create(t, 4).Submission.ID
	pending := f.create(t, 1).Submission.ID
	_, err := f.engine.Submit(ctx, pending, []entity.ApproverAssignment{
		{Role: entity.RoleBUM, Email: "bum@corp.example"},
		{Role: entity.RoleFBP, Email: "fbp@corp.example"},
	}, workflow.Actor{})
	require.NoError(t, err)

	reg := service.NewRegisterService(f.repos.Submissions, f.repos.Records, &recordingWriter{}, nil)

	rows, err := reg.Rows(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[int64]port.RegisterRow{}
	for _, r := range rows {
		byID[r.Submission.ID] = r
	}
	assert.Equal(t, "Litigation Filing", byID[draft].FormName)
	assert.Equal(t, entity.StatusDraft, byID[draft].Phase)
	assert.Empty(t, byID[draft].Records)
	assert.Len(t, byID[pending].Records, 2)

	filtered, err := reg.Rows(ctx, entity.StatusPendingApproval)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, pending, filtered[0].Submission.ID)

	_, err = reg.Rows(ctx, "LOST")
	assert.ErrorIs(t, err, domainwf.ErrInvalidInput)
}

func TestRegisterService_Export(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, 1)

	t.Run("writes through the register writer", func(t *testing.T) {
		w := &recordingWriter{}
		reg := service.NewRegisterService(f.repos.Submissions, f.repos.Records, w, nil)

		var buf bytes.Buffer
		require.NoError(t, reg.Export(ctx, &buf, ""))
		assert.Equal(t, "ok", buf.String())
		assert.Len(t, w.rows, 1)
	})

	t.Run("writer failure is a processing failure", func(t *testing.T) {
		w := &recordingWriter{err: errors.New("disk full")}
		reg := service.NewRegisterService(f.repos.Submissions, f.repos.Records, w, nil)

		err := reg.Export(ctx, io.Discard, "")
		assert.ErrorIs(t, err, domainwf.ErrProcessingFailed)
	})

	t.Run("xlsx workbook", func(t *testing.T) {
		reg := service.NewRegisterService(f.repos.Submissions, f.repos.Records, export.NewRegisterXLSXWriter(nil), nil)

		var buf bytes.Buffer
		require.NoError(t, reg.Export(ctx, &buf, ""))

		book, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer book.Close()

		title, err := book.GetCellValue("Register", "C2")
		require.NoError(t, err)
		assert.Equal(t, "Distribution agreement", title)
	})
}
