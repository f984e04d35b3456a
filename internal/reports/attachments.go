package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interntrack/backend/internal/models"
	"github.com/interntrack/backend/pkg/apperrors"
	"github.com/interntrack/backend/pkg/storage"
)

// UsageLedger records storage consumption against the organization's quota.
// Satisfied by organizations.Repository.
type UsageLedger interface {
	ApplyUsageDelta(ctx context.Context, orgID uuid.UUID, delta models.UsageDelta) error
}

// attachmentWriter is the slice of Repository the manager needs.
type attachmentWriter interface {
	UpdateAttachment(ctx context.Context, orgID, id uuid.UUID, att models.Attachment) error
}

// Upload is one incoming file from a multipart request.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentManager coordinates the storage backend, the report row, and the
// organization's storage ledger for attach, replace, and detach.
//
// Ordering invariant: the ledger is only credited for bytes that were actually
// stored, and a report only references an object after it exists. On replace,
// the old object is removed only after the new one is both stored and
// referenced; the removal itself is best-effort.
type AttachmentManager struct {
	store   storage.Store
	reports attachmentWriter
	ledger  UsageLedger
	logger  *zap.Logger
}

// NewAttachmentManager creates an attachment manager.
func NewAttachmentManager(store storage.Store, reports attachmentWriter, ledger UsageLedger, logger *zap.Logger) *AttachmentManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentManager{store: store, reports: reports, ledger: ledger, logger: logger}
}

// validate checks the upload against the type allow-list, the size cap, and
// the organization's remaining storage. extraMB is the net quota the upload
// would consume (negative on replace when the new file is smaller).
func (m *AttachmentManager) validate(up *Upload, org *models.Organization, extraMB float64) error {
	if !storage.ValidateFileType(up.ContentType) {
		return apperrors.NewValidation("file", fmt.Sprintf("file type %q is not allowed", up.ContentType))
	}
	if up.Size > storage.MaxFileSize {
		return apperrors.NewValidation("file", "file exceeds the 10MB limit")
	}
	if extraMB > 0 && !org.HasStorageSpace(extraMB) {
		return apperrors.NewQuotaExceeded(fmt.Sprintf(
			"storage limit reached (%.1fMB of %.1fMB used)",
			org.Usage.StorageUsedMB, org.Limits.MaxStorageMB))
	}
	return nil
}

// Attach stores the file, persists the attachment on the report, and credits
// the organization's storage ledger. The report must not already carry a file.
// On success report.Attachment is populated.
func (m *AttachmentManager) Attach(ctx context.Context, report *models.Report, org *models.Organization, up *Upload) error {
	sizeMB := storage.MBFromBytes(up.Size)
	if err := m.validate(up, org, sizeMB); err != nil {
		return err
	}

	att := models.Attachment{
		FileKey:    storage.GenerateKey(org.ID.String(), up.Name),
		FileName:   up.Name,
		FileType:   up.ContentType,
		FileSizeMB: sizeMB,
	}
	meta := map[string]string{
		"organization_id": org.ID.String(),
		"report_id":       report.ID.String(),
	}
	if err := m.store.Upload(ctx, att.FileKey, att.FileType, up.Body, up.Size, meta); err != nil {
		return apperrors.NewStorageBackend("upload", err)
	}
	if err := m.ledger.ApplyUsageDelta(ctx, org.ID, models.UsageDelta{StorageMB: sizeMB}); err != nil {
		m.removeObject(ctx, att.FileKey)
		return err
	}
	if err := m.reports.UpdateAttachment(ctx, org.ID, report.ID, att); err != nil {
		m.refundLedger(ctx, org.ID, sizeMB)
		m.removeObject(ctx, att.FileKey)
		return err
	}

	report.Attachment = att
	return nil
}

// Replace swaps the report's attachment for a new file. The old object is
// deleted only after the new one is stored and the report points at it, so a
// mid-operation failure never leaves the report referencing a missing file.
func (m *AttachmentManager) Replace(ctx context.Context, report *models.Report, org *models.Organization, up *Upload) error {
	if !report.HasAttachment() {
		return m.Attach(ctx, report, org, up)
	}
	old := report.Attachment
	sizeMB := storage.MBFromBytes(up.Size)
	if err := m.validate(up, org, sizeMB-old.FileSizeMB); err != nil {
		return err
	}

	att := models.Attachment{
		FileKey:    storage.GenerateKey(org.ID.String(), up.Name),
		FileName:   up.Name,
		FileType:   up.ContentType,
		FileSizeMB: sizeMB,
	}
	meta := map[string]string{
		"organization_id": org.ID.String(),
		"report_id":       report.ID.String(),
	}
	if err := m.store.Upload(ctx, att.FileKey, att.FileType, up.Body, up.Size, meta); err != nil {
		return apperrors.NewStorageBackend("upload", err)
	}
	if err := m.ledger.ApplyUsageDelta(ctx, org.ID, models.UsageDelta{StorageMB: sizeMB - old.FileSizeMB}); err != nil {
		m.removeObject(ctx, att.FileKey)
		return err
	}
	if err := m.reports.UpdateAttachment(ctx, org.ID, report.ID, att); err != nil {
		m.refundLedger(ctx, org.ID, sizeMB-old.FileSizeMB)
		m.removeObject(ctx, att.FileKey)
		return err
	}
	m.removeObject(ctx, old.FileKey)

	report.Attachment = att
	return nil
}

// Detach releases the report's stored object and returns its bytes to the
// organization's quota. Used after the report row is deleted, so both steps
// are best-effort: a stranded object must never resurrect the row.
func (m *AttachmentManager) Detach(ctx context.Context, report *models.Report) {
	if !report.HasAttachment() {
		return
	}
	m.removeObject(ctx, report.Attachment.FileKey)
	delta := models.UsageDelta{StorageMB: -report.Attachment.FileSizeMB}
	if err := m.ledger.ApplyUsageDelta(ctx, report.OrganizationID, delta); err != nil {
		m.logger.Error("storage ledger release failed",
			zap.String("org_id", report.OrganizationID.String()),
			zap.Float64("size_mb", report.Attachment.FileSizeMB),
			zap.Error(err))
	}
	report.Attachment = models.Attachment{}
}

// refundLedger reverses a usage credit during compensation. Best-effort: the
// clamped counters cannot go negative, and a stale over-count is corrected on
// the next successful delta.
func (m *AttachmentManager) refundLedger(ctx context.Context, orgID uuid.UUID, sizeMB float64) {
	if err := m.ledger.ApplyUsageDelta(ctx, orgID, models.UsageDelta{StorageMB: -sizeMB}); err != nil {
		m.logger.Error("storage ledger refund failed",
			zap.String("org_id", orgID.String()),
			zap.Float64("size_mb", sizeMB),
			zap.Error(err))
	}
}

func (m *AttachmentManager) removeObject(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.logger.Warn("stored object delete failed", zap.String("key", key), zap.Error(err))
	}
}
