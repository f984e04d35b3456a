package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interntrack/backend/internal/access"
	"github.com/interntrack/backend/internal/middleware"
	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/pkg/apperrors"
	"github.com/interntrack/backend/pkg/response"
	"github.com/interntrack/backend/pkg/storage"
)

// Handler exposes the report lifecycle over HTTP.
type Handler struct {
	repo        *Repository
	attachments *AttachmentManager
	store       storage.Store
	logger      *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(repo *Repository, attachments *AttachmentManager, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, attachments: attachments, store: store, logger: logger}
}

func validateContent(reportType models.ReportType, summary string) error {
	if !reportType.Valid() {
		return apperrors.NewValidation("type", "must be daily or weekly")
	}
	if strings.TrimSpace(summary) == "" {
		return apperrors.NewValidation("summary", "is required")
	}
	if len(summary) > models.MaxSummaryLen {
		return apperrors.NewValidation("summary", fmt.Sprintf("cannot exceed %d characters", models.MaxSummaryLen))
	}
	return nil
}

// upload pulls the optional "file" part out of a multipart request. Returns
// nil when no file was sent.
func uploadFromForm(c *gin.Context) (*Upload, func(), error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, apperrors.NewValidation("file", "could not read uploaded file")
	}
	up := &Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return up, func() { _ = f.Close() }, nil
}

// load fetches the report named in the URL, scoped to the caller's organization.
func (h *Handler) load(c *gin.Context) (*models.Report, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return nil, false
	}
	org := middleware.CurrentOrg(c)
	report, err := h.repo.GetInOrg(c.Request.Context(), org.ID, id)
	if err != nil {
		h.logger.Error("failed to load report", zap.String("report_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load report")
		return nil, false
	}
	if report == nil {
		response.NotFound(c, "report not found")
		return nil, false
	}
	return report, true
}

// conflict reports a lost status race: re-read the row and name the status
// that actually won, or 404 when the report was deleted underneath us.
func (h *Handler) conflict(c *gin.Context, orgID, id uuid.UUID, action string) {
	current, err := h.repo.GetInOrg(c.Request.Context(), orgID, id)
	if err != nil || current == nil {
		response.NotFound(c, "report not found")
		return
	}
	response.Error(c, apperrors.NewStateConflict(action, string(current.Status)))
}

// Create handles POST /reports (multipart): a new daily/weekly report, as a
// draft or submitted immediately via submit_now, with an optional file.
func (h *Handler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	reportType := models.ReportType(c.PostForm("type"))
	summary := c.PostForm("summary")
	if err := validateContent(reportType, summary); err != nil {
		response.Error(c, err)
		return
	}

	report := &models.Report{
		OrganizationID: org.ID,
		InternID:       user.ID,
		Type:           reportType,
		Summary:        summary,
		Status:         models.StatusDraft,
	}
	if c.PostForm("submit_now") == "true" {
		now := time.Now()
		report.Status = models.StatusSubmitted
		report.SubmittedAt = &now
	}

	up, closeUp, err := uploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if up != nil {
		defer closeUp()
	}

	if err := h.repo.Create(c.Request.Context(), report); err != nil {
		h.logger.Error("failed to create report", zap.String("intern_id", user.ID.String()), zap.Error(err))
		response.Internal(c, "failed to create report")
		return
	}

	if up != nil {
		if err := h.attachments.Attach(c.Request.Context(), report, org, up); err != nil {
			// A failed upload aborts the whole creation.
			if _, delErr := h.repo.Delete(c.Request.Context(), org.ID, report.ID); delErr != nil {
				h.logger.Error("failed to roll back report after upload failure",
					zap.String("report_id", report.ID.String()), zap.Error(delErr))
			}
			response.Error(c, err)
			return
		}
	}

	report.InternName = user.Name
	response.Created(c, report)
}

// ListMine handles GET /reports/my: the caller's own reports, newest first.
func (h *Handler) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	list, err := h.repo.ListByIntern(c.Request.Context(), org.ID, user.ID)
	if err != nil {
		h.logger.Error("failed to list reports", zap.String("intern_id", user.ID.String()), zap.Error(err))
		response.Internal(c, "failed to list reports")
		return
	}
	response.OK(c, list)
}

// List handles GET /reports: the admin review queue (non-draft reports),
// filterable by status and sortable by date, status, or intern.
func (h *Handler) List(c *gin.Context) {
	org := middleware.CurrentOrg(c)

	status := models.ReportStatus(c.Query("status"))
	switch status {
	case "", models.StatusSubmitted, models.StatusUnderReview, models.StatusGraded:
	default:
		response.BadRequest(c, "status must be submitted, under_review, or graded")
		return
	}

	list, err := h.repo.ListForReview(c.Request.Context(), org.ID, status, c.Query("sort_by"))
	if err != nil {
		h.logger.Error("failed to list reports", zap.String("org_id", org.ID.String()), zap.Error(err))
		response.Internal(c, "failed to list reports")
		return
	}
	response.OK(c, list)
}

// GetStats handles GET /reports/stats: per-status counts for the admin dashboard.
func (h *Handler) GetStats(c *gin.Context) {
	org := middleware.CurrentOrg(c)

	stats, err := h.repo.GetStats(c.Request.Context(), org.ID)
	if err != nil {
		h.logger.Error("failed to load report stats", zap.String("org_id", org.ID.String()), zap.Error(err))
		response.Internal(c, "failed to load report stats")
		return
	}
	response.OK(c, stats)
}

// Get handles GET /reports/:id. Reading a report never changes its status;
// review starts via the explicit review endpoint.
func (h *Handler) Get(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	if err := access.CanViewReport(middleware.CurrentUser(c), report); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Download handles GET /reports/:id/download: a time-limited URL for the
// report's attachment.
func (h *Handler) Download(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	if err := access.CanViewReport(middleware.CurrentUser(c), report); err != nil {
		response.Error(c, err)
		return
	}
	if !report.HasAttachment() {
		response.NotFound(c, "report has no attached file")
		return
	}

	url, err := h.store.DownloadURL(c.Request.Context(), report.Attachment.FileKey)
	if err != nil {
		h.logger.Error("failed to sign download url",
			zap.String("report_id", report.ID.String()),
			zap.String("key", report.Attachment.FileKey),
			zap.Error(err))
		response.Error(c, apperrors.NewStorageBackend("download", err))
		return
	}
	response.OK(c, gin.H{
		"url":       url,
		"file_name": report.Attachment.FileName,
		"file_type": report.Attachment.FileType,
	})
}

// Update handles PUT /reports/:id (multipart): edits a draft's content and
// optionally replaces its file. Only drafts are editable.
func (h *Handler) Update(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	if err := access.CanMutateReport(user, report); err != nil {
		response.Error(c, err)
		return
	}
	if report.Status != models.StatusDraft {
		response.Error(c, apperrors.NewStateConflict("update", string(report.Status)))
		return
	}

	reportType := report.Type
	if v := c.PostForm("type"); v != "" {
		reportType = models.ReportType(v)
	}
	summary := report.Summary
	if v, sent := c.GetPostForm("summary"); sent {
		summary = v
	}
	if err := validateContent(reportType, summary); err != nil {
		response.Error(c, err)
		return
	}

	up, closeUp, err := uploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if up != nil {
		defer closeUp()
	}

	changed, err := h.repo.UpdateDraftContent(c.Request.Context(), org.ID, report.ID, reportType, summary)
	if err != nil {
		h.logger.Error("failed to update report", zap.String("report_id", report.ID.String()), zap.Error(err))
		response.Internal(c, "failed to update report")
		return
	}
	if !changed {
		h.conflict(c, org.ID, report.ID, "update")
		return
	}
	report.Type = reportType
	report.Summary = summary

	if up != nil {
		if err := h.attachments.Replace(c.Request.Context(), report, org, up); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.OK(c, report)
}

// Submit handles PUT /reports/:id/submit: draft -> submitted.
func (h *Handler) Submit(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	if err := access.CanMutateReport(user, report); err != nil {
		response.Error(c, err)
		return
	}

	now := time.Now()
	changed, err := h.repo.Submit(c.Request.Context(), org.ID, report.ID, now)
	if err != nil {
		h.logger.Error("failed to submit report", zap.String("report_id", report.ID.String()), zap.Error(err))
		response.Internal(c, "failed to submit report")
		return
	}
	if !changed {
		h.conflict(c, org.ID, report.ID, "submit")
		return
	}
	report.Status = models.StatusSubmitted
	report.SubmittedAt = &now
	response.OKMessage(c, "report submitted", report)
}

// Undo handles PUT /reports/:id/undo: recalls a submission back to draft.
// Legal only while the report is still exactly submitted; once a reviewer has
// begun review the recall window is closed.
func (h *Handler) Undo(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	if err := access.CanMutateReport(user, report); err != nil {
		response.Error(c, err)
		return
	}

	changed, err := h.repo.Undo(c.Request.Context(), org.ID, report.ID)
	if err != nil {
		h.logger.Error("failed to undo submission", zap.String("report_id", report.ID.String()), zap.Error(err))
		response.Internal(c, "failed to undo submission")
		return
	}
	if !changed {
		h.conflict(c, org.ID, report.ID, "undo")
		return
	}
	report.Status = models.StatusDraft
	report.SubmittedAt = nil
	response.OKMessage(c, "submission recalled", report)
}

// BeginReview handles PUT /reports/:id/review: submitted -> under_review,
// recording the reviewer. Racing against the intern's undo, whichever write
// lands first wins.
func (h *Handler) BeginReview(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	if err := access.CanReview(user, report); err != nil {
		response.Error(c, err)
		return
	}

	changed, err := h.repo.BeginReview(c.Request.Context(), org.ID, report.ID, user.ID)
	if err != nil {
		h.logger.Error("failed to begin review", zap.String("report_id", report.ID.String()), zap.Error(err))
		response.Internal(c, "failed to begin review")
		return
	}
	if !changed {
		h.conflict(c, org.ID, report.ID, "begin review")
		return
	}
	report.Status = models.StatusUnderReview
	report.ReviewedBy = &user.ID
	report.ReviewerName = user.Name
	response.OKMessage(c, "review started", report)
}

type gradeRequest struct {
	Rating        *int   `json:"rating"`
	Marks         *int   `json:"marks"`
	AdminFeedback string `json:"admin_feedback"`
}

// Grade handles PUT /reports/:id/grade: records rating, marks, and feedback
// and moves the report to graded. Re-grading an already graded report
// overwrites the previous evaluation.
func (h *Handler) Grade(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	if err := access.CanReview(user, report); err != nil {
		response.Error(c, err)
		return
	}

	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.Rating == nil {
		response.Error(c, apperrors.NewValidation("rating", "is required"))
		return
	}
	if req.Marks == nil {
		response.Error(c, apperrors.NewValidation("marks", "is required"))
		return
	}

	// Validate transition and ranges on the loaded copy before writing.
	now := time.Now()
	if err := report.Grade(*req.Rating, *req.Marks, req.AdminFeedback, user.ID, now); err != nil {
		response.Error(c, err)
		return
	}

	changed, err := h.repo.Grade(c.Request.Context(), org.ID, report.ID,
		*req.Rating, *req.Marks, req.AdminFeedback, user.ID, now)
	if err != nil {
		h.logger.Error("failed to grade report", zap.String("report_id", report.ID.String()), zap.Error(err))
		response.Internal(c, "failed to grade report")
		return
	}
	if !changed {
		// The report slipped back to draft (undo) or vanished between read and write.
		h.conflict(c, org.ID, report.ID, "grade")
		return
	}
	report.ReviewerName = user.Name
	response.OKMessage(c, "report graded", report)
}

// Delete handles DELETE /reports/:id. The row goes first; releasing the
// stored object and its quota afterwards is best-effort.
func (h *Handler) Delete(c *gin.Context) {
	report, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	org := middleware.CurrentOrg(c)

	if err := access.CanDeleteReport(user, report); err != nil {
		response.Error(c, err)
		return
	}

	deleted, err := h.repo.Delete(c.Request.Context(), org.ID, report.ID)
	if err != nil {
		h.logger.Error("failed to delete report", zap.String("report_id", report.ID.String()), zap.Error(err))
		response.Internal(c, "failed to delete report")
		return
	}
	if !deleted {
		response.NotFound(c, "report not found")
		return
	}
	h.attachments.Detach(c.Request.Context(), report)

	response.OKMessage(c, "report deleted", nil)
}
