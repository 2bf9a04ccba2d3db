// internal/service/contract/service.go
package contract

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"helloaca-service/internal/domain/contract"
	"helloaca-service/internal/domain/subscription"
	"helloaca-service/internal/pkg/cache"
	xerrors "helloaca-service/internal/pkg/errors"
	"helloaca-service/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	previewLimit    = 8000
)

var allowedFileTypes = map[string]bool{
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
}

// Store is the contract persistence surface.
type Store interface {
	Create(ctx context.Context, c *contract.Contract) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*contract.Contract, error)
	List(ctx context.Context, userID uuid.UUID, filters *contract.ListFilters) ([]contract.Contract, int64, error)
	Update(ctx context.Context, userID, id uuid.UUID, title, description *string) (*contract.Contract, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// Gate is the usage-gate surface the upload path needs.
type Gate interface {
	Evaluate(ctx context.Context, userID uuid.UUID, action subscription.Action) (*subscription.Decision, error)
	MaxFileSize(ctx context.Context, userID uuid.UUID) (int64, error)
}

// FileUpload is the decoded multipart file handed down by the handler.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

type Service struct {
	store      Store
	gate       Gate
	blobs      storage.BlobStore
	cache      *cache.Cache
	trialLimit int
	logger     *zap.Logger
}

func NewService(store Store, gate Gate, blobs storage.BlobStore, c *cache.Cache, trialLimit int, logger *zap.Logger) *Service {
	if trialLimit <= 0 {
		trialLimit = subscription.DefaultTrialLimit
	}
	return &Service{store: store, gate: gate, blobs: blobs, cache: c, trialLimit: trialLimit, logger: logger}
}

// Upload validates the file, spends quota, stores the blob and inserts
// the contract row. Quota is spent before the blob write; a failed write
// on the last trial unit costs the unit, which we accept over the
// reverse race of a stored blob with no quota spent.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, req *contract.UploadRequest, file FileUpload) (*contract.UploadResponse, error) {
	if err := s.validateFile(ctx, userID, file); err != nil {
		return nil, err
	}

	decision, err := s.gate.Evaluate(ctx, userID, subscription.ActionContract)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, xerrors.NewAPIError(403, "SUBSCRIPTION_LIMIT_EXCEEDED", decision.Reason).
			WithCause(xerrors.ErrQuotaExceeded)
	}

	contractID := uuid.New()
	path := storage.ContractPath(userID.String(), contractID.String(), sanitizeName(file.Name))

	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	url, err := s.blobs.Upload(ctx, path, file.ContentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	c := &contract.Contract{
		ID:           contractID,
		UserID:       userID,
		Title:        req.Title,
		ContractType: req.ContractType,
		FileName:     file.Name,
		FileSize:     file.Size,
		FileType:     file.ContentType,
		StoragePath:  path,
		FileURL:      url,
		Status:       contract.StatusUploaded,
	}
	if req.Description != "" {
		c.Description = sql.NullString{String: req.Description, Valid: true}
	}
	if preview := extractPreview(file.ContentType, data); preview != "" {
		c.ContentPreview = sql.NullString{String: preview, Valid: true}
	}

	if err := s.store.Create(ctx, c); err != nil {
		// Orphaned blob; remove it so storage doesn't accumulate
		// rows that no contract references.
		if delErr := s.blobs.Delete(ctx, path); delErr != nil {
			s.logger.Warn("failed to clean up orphaned blob",
				zap.String("path", path), zap.Error(delErr))
		}
		return nil, err
	}

	return &contract.UploadResponse{
		Message:  "Contract uploaded successfully",
		Contract: c,
		Usage:    s.usageFromDecision(decision),
	}, nil
}

// Get returns a single contract owned by the user.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*contract.Contract, error) {
	return s.store.FindByID(ctx, userID, id)
}

// List returns a page of the user's contracts.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filters *contract.ListFilters) (*contract.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = defaultPageSize
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}

	contracts, total, err := s.store.List(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	if contracts == nil {
		contracts = []contract.Contract{}
	}

	totalPages := int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	return &contract.ListResponse{
		Contracts:  contracts,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Update modifies title/description.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req *contract.UpdateRequest) (*contract.Contract, error) {
	return s.store.Update(ctx, userID, id, req.Title, req.Description)
}

// Delete removes the contract row and every stored object under its
// folder. The blob cleanup is best-effort: storage failure is logged
// and the row delete proceeds, so the user-visible resource is always
// gone after a 200.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.store.FindByID(ctx, userID, id); err != nil {
		return err
	}

	prefix := storage.ContractPrefix(userID.String(), id.String())
	if err := s.blobs.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn("failed to delete contract blobs, removing row anyway",
			zap.String("contract_id", id.String()),
			zap.String("prefix", prefix),
			zap.Error(err))
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, cache.AnalysisKey(id.String()))
	}
	return nil
}

func (s *Service) validateFile(ctx context.Context, userID uuid.UUID, file FileUpload) error {
	if file.Size <= 0 {
		return xerrors.NewAPIError(400, "VALIDATION_ERROR", "uploaded file is empty").
			WithCause(xerrors.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if !allowedExtensions[ext] || !allowedFileTypes[file.ContentType] {
		return xerrors.NewAPIError(400, "VALIDATION_ERROR", "unsupported file type, use PDF, DOC, DOCX or TXT").
			WithCause(xerrors.ErrInvalidInput)
	}

	maxSize, err := s.gate.MaxFileSize(ctx, userID)
	if err != nil {
		return err
	}
	if file.Size > maxSize {
		return xerrors.NewAPIError(400, "VALIDATION_ERROR",
			fmt.Sprintf("file exceeds the %d MB limit for your plan", maxSize>>20)).
			WithCause(xerrors.ErrInvalidInput)
	}
	return nil
}

func (s *Service) usageFromDecision(d *subscription.Decision) contract.Usage {
	if d.MonthlyLimit != 0 {
		return contract.Usage{Current: d.MonthlyUsed + 1, Limit: d.MonthlyLimit}
	}
	if d.RemainingTrials == subscription.Unlimited {
		return contract.Usage{Current: 0, Limit: subscription.Unlimited}
	}
	return contract.Usage{Current: s.trialLimit - d.RemainingTrials, Limit: s.trialLimit}
}

// extractPreview keeps the head of plain-text uploads for prompts and
// list views. Binary formats are not parsed here.
func extractPreview(contentType string, data []byte) string {
	if contentType != "text/plain" {
		return ""
	}
	text := strings.TrimSpace(string(data))
	if len(text) > previewLimit {
		cut := previewLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
