package port

import (
	"context"
	"io"
	"time"

	"github.com/garyjia/legal-approval/internal/domain/entity"
)

// RegisterRow is one submission line of the approval register
type RegisterRow struct {
	Submission *entity.Submission
	FormName   string
	Phase      string
	Overdue    bool
	Records    []*entity.ApprovalRecord
}

// RegisterWriter renders the approval register into a workbook
type RegisterWriter interface {
	Write(ctx context.Context, w io.Writer, rows []RegisterRow, generatedAt time.Time) error
}
