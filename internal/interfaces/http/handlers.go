package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/legal-approval/internal/application/port"
	"github.com/garyjia/legal-approval/internal/application/service"
	"github.com/garyjia/legal-approval/internal/application/workflow"
	"github.com/garyjia/legal-approval/internal/container"
	"github.com/garyjia/legal-approval/internal/domain/entity"
	domainwf "github.com/garyjia/legal-approval/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                               `json:"status"`
	Timestamp  string                               `json:"timestamp"`
	Components map[string]container.ComponentHealth `json:"components,omitempty"`
}

// ListSubmissionsRequest represents query parameters for listing submissions
type ListSubmissionsRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// SubmitRequest carries the first-level signers for a DRAFT
type SubmitRequest struct {
	Assignments []entity.ApproverAssignment `json:"assignments"`
	Actor       workflow.Actor              `json:"actor"`
}

// ResubmitRequest reopens a SENT_BACK submission
type ResubmitRequest struct {
	Actor   workflow.Actor `json:"actor"`
	Comment string         `json:"comment"`
}

// DecisionRequest is the body of POST /submissions/:id/decisions
type DecisionRequest struct {
	Role                 entity.Role    `json:"role" binding:"required"`
	Action               entity.Action  `json:"action" binding:"required"`
	Comment              string         `json:"comment"`
	Actor                workflow.Actor `json:"actor"`
	AssignedOfficer      string         `json:"assigned_officer"`
	SpecialApproverEmail string         `json:"special_approver_email"`
	SpecialApproverName  string         `json:"special_approver_name"`
}

// CommentRequest adds a comment
type CommentRequest struct {
	Author workflow.Actor `json:"author"`
	Body   string         `json:"body"`
}

// DocumentRequest registers document metadata
type DocumentRequest struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	if h.deps.Health != nil {
		status := h.deps.Health.Health()
		resp.Components = status.Components
		if !status.Overall {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, Response{Success: code == http.StatusOK, Data: resp})
}

// ListForms handles GET /api/forms
func (h *Handlers) ListForms(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: entity.FormTypes()})
}

// ListDirectory handles GET /api/directory
func (h *Handlers) ListDirectory(c *gin.Context) {
	users := h.deps.Directory
	if users == nil {
		users = []container.DirectoryEntry{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters")
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	subs, err := h.deps.Submissions.List(c.Request.Context(), port.SubmissionFilter{
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: subs})
}

// CreateSubmission handles POST /api/submissions
func (h *Handlers) CreateSubmission(c *gin.Context) {
	var req service.CreateSubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	snap, err := h.deps.Submissions.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: snap})
}

// GetSubmission handles GET /api/submissions/:id
func (h *Handlers) GetSubmission(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	snap, err := h.deps.Submissions.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: snap})
}

// SubmitSubmission handles POST /api/submissions/:id/submit
func (h *Handlers) SubmitSubmission(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	snap, err := h.deps.Engine.Submit(c.Request.Context(), id, req.Assignments, req.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: snap})
}

// ResubmitSubmission handles POST /api/submissions/:id/resubmit
func (h *Handlers) ResubmitSubmission(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ResubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid request body")
			return
		}
	}

	snap, err := h.deps.Engine.Resubmit(c.Request.Context(), id, req.Actor, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: snap})
}

// ApplyDecision handles POST /api/submissions/:id/decisions
func (h *Handlers) ApplyDecision(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "role and action are required")
		return
	}

	h.logger.Info("Applying decision",
		"submission_id", id,
		"role", req.Role,
		"action", req.Action,
		"actor_email", req.Actor.Email,
	)

	snap, err := h.deps.Engine.Apply(c.Request.Context(), workflow.Decision{
		SubmissionID:         id,
		Role:                 req.Role,
		Action:               req.Action,
		Comment:              req.Comment,
		Actor:                req.Actor,
		AssignedOfficer:      req.AssignedOfficer,
		SpecialApproverEmail: req.SpecialApproverEmail,
		SpecialApproverName:  req.SpecialApproverName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: snap})
}

// ListEvents handles GET /api/submissions/:id/events
func (h *Handlers) ListEvents(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	events, err := h.deps.Submissions.ListEvents(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

// ListComments handles GET /api/submissions/:id/comments
func (h *Handlers) ListComments(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.deps.Submissions.ListComments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: comments})
}

// AddComment handles POST /api/submissions/:id/comments
func (h *Handlers) AddComment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	comment, err := h.deps.Submissions.AddComment(c.Request.Context(), id, req.Author, req.Body)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: comment})
}

// ListDocuments handles GET /api/submissions/:id/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	docs, err := h.deps.Submissions.ListDocuments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// RegisterDocument handles POST /api/submissions/:id/documents
func (h *Handlers) RegisterDocument(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	doc, err := h.deps.Submissions.RegisterDocument(c.Request.Context(), id, req.Name, req.Required)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// MarkDocumentUploaded handles POST /api/submissions/:id/documents/:docId/uploaded
func (h *Handlers) MarkDocumentUploaded(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	docID, ok := h.pathID(c, "docId")
	if !ok {
		return
	}

	doc, err := h.deps.Submissions.MarkDocumentUploaded(c.Request.Context(), id, docID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// ExportRegister handles GET /api/reports/register.xlsx
func (h *Handlers) ExportRegister(c *gin.Context) {
	status := c.Query("status")

	// Headers are written only after the workbook renders
	var buf bytes.Buffer
	if err := h.deps.Register.Export(c.Request.Context(), &buf, status); err != nil {
		h.fail(c, err)
		return
	}

	filename := fmt.Sprintf("approval-register-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg, Code: "INVALID_INPUT"})
}

// fail maps an application error onto a status code and envelope.
// Internal failures are returned without details.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal processing failure"
		h.logger.Error("Request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
	}
	c.JSON(status, Response{Success: false, Error: msg, Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domainwf.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domainwf.ErrInvalidTransition), errors.Is(err, domainwf.ErrGuardFailed):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domainwf.ErrRoleNotAssigned):
		return http.StatusUnprocessableEntity, "ROLE_NOT_ASSIGNED"
	case errors.Is(err, domainwf.ErrUnhandledRole):
		return http.StatusNotImplemented, "UNHANDLED_ROLE"
	default:
		return http.StatusInternalServerError, "PROCESSING_FAILED"
	}
}
