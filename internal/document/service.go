package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/ai"
	"github.com/suPer8Hu/docchat/internal/storage"
	"github.com/suPer8Hu/docchat/internal/tenant"
)

const (
	maxStoreDisplayName = 512
	pdfContentType      = "application/pdf"
)

// SearchService is the document-search side of the grounded generation API.
type SearchService interface {
	CreateStore(ctx context.Context, displayName string) (string, error)
	UploadFile(ctx context.Context, r io.Reader, size int64, displayName, mimeType string) (string, error)
	ImportFile(ctx context.Context, store, fileName string) (*ai.Operation, error)
	GetOperation(ctx context.Context, name string) (*ai.Operation, error)
	DeleteFile(ctx context.Context, fileName string) error
}

// Tenants is what ingestion needs from the tenant directory.
type Tenants interface {
	Get(ctx context.Context, id string) (*tenant.Tenant, error)
	SetStoreIDIfEmpty(ctx context.Context, id, storeID string) (bool, error)
}

type Service struct {
	repo         *Repo
	tenants      Tenants
	search       SearchService
	archive      storage.Storage
	validator    *Validator
	pollInterval time.Duration
	log          zerolog.Logger
}

func NewService(repo *Repo, tenants Tenants, search SearchService, archive storage.Storage, validator *Validator, pollInterval time.Duration, log zerolog.Logger) *Service {
	if validator == nil {
		validator = NewValidator(nil)
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Service{
		repo:         repo,
		tenants:      tenants,
		search:       search,
		archive:      archive,
		validator:    validator,
		pollInterval: pollInterval,
		log:          log.With().Str("component", "documents").Logger(),
	}
}

// StoreDisplayName derives the search store's display name from the tenant.
func StoreDisplayName(t *tenant.Tenant) string {
	name := "store-" + t.ID
	if t.CompanyName != "" {
		safe := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == ' ' {
				return r
			}
			return -1
		}, t.CompanyName)
		name = safe + "-" + t.ID
	}
	if r := []rune(name); len(r) > maxStoreDisplayName {
		name = string(r[:maxStoreDisplayName])
	}
	return name
}

// EnsureStore returns the tenant's store id, provisioning one on first use.
// When two uploads race, the first persisted id wins and the other store is orphaned.
func (s *Service) EnsureStore(ctx context.Context, t *tenant.Tenant) (string, error) {
	if t.FileStoreID != "" {
		return t.FileStoreID, nil
	}

	storeID, err := s.search.CreateStore(ctx, StoreDisplayName(t))
	if err != nil {
		return "", fmt.Errorf("create store: %w", err)
	}

	won, err := s.tenants.SetStoreIDIfEmpty(ctx, t.ID, storeID)
	if err != nil {
		return "", fmt.Errorf("persist store id: %w", err)
	}
	if won {
		t.FileStoreID = storeID
		return storeID, nil
	}

	current, err := s.tenants.Get(ctx, t.ID)
	if err != nil {
		return "", err
	}
	s.log.Warn().
		Str("tenant_id", t.ID).
		Str("orphaned_store", storeID).
		Str("store_id", current.FileStoreID).
		Msg("store provisioned concurrently; keeping the first one")
	t.FileStoreID = current.FileStoreID
	return current.FileStoreID, nil
}

type Ingested struct {
	ArchiveKey       string
	ExternalFileName string
}

// Ingest archives data, then uploads it to the search service and imports it into
// storeID, blocking until the import operation finishes or ctx ends.
func (s *Service) Ingest(ctx context.Context, data []byte, tenantID, storeID, filename string) (*Ingested, error) {
	filename = filepath.Base(filename)
	key := fmt.Sprintf("%s/%s/%s", tenantID, uuid.NewString(), filename)

	if err := s.archive.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), pdfContentType); err != nil {
		return nil, fmt.Errorf("archive upload: %w", err)
	}

	external, err := s.indexFile(ctx, data, tenantID+"_"+filename, storeID)
	if err != nil {
		if derr := s.archive.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.log.Warn().Err(derr).Str("key", key).Msg("archive cleanup failed")
		}
		return nil, err
	}
	return &Ingested{ArchiveKey: key, ExternalFileName: external}, nil
}

func (s *Service) indexFile(ctx context.Context, data []byte, displayName, storeID string) (string, error) {
	tmp, err := os.CreateTemp("", "docchat-*.pdf")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}

	fileName, err := s.search.UploadFile(ctx, tmp, int64(len(data)), displayName, pdfContentType)
	if err != nil {
		return "", fmt.Errorf("upload to search service: %w", err)
	}

	op, err := s.search.ImportFile(ctx, storeID, fileName)
	if err != nil {
		return "", fmt.Errorf("import into store: %w", err)
	}
	if err := s.waitOperation(ctx, op); err != nil {
		return "", err
	}
	return fileName, nil
}

func (s *Service) waitOperation(ctx context.Context, op *ai.Operation) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		next, err := s.search.GetOperation(ctx, op.Name)
		if err != nil {
			return fmt.Errorf("poll import: %w", err)
		}
		op = next
	}
	if op.Error != nil {
		return fmt.Errorf("file import failed: %w", op.Error)
	}
	return nil
}

// Upload validates, ingests and records one PDF for tenantID.
func (s *Service) Upload(ctx context.Context, tenantID, filename string, data []byte) (*Document, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, &ValidationError{Reason: "Only PDF files are allowed"}
	}
	if err := s.validator.Validate(data); err != nil {
		return nil, err
	}

	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	storeID, err := s.EnsureStore(ctx, t)
	if err != nil {
		return nil, err
	}

	ing, err := s.Ingest(ctx, data, tenantID, storeID, filename)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		OwnerID:          tenantID,
		Filename:         filepath.Base(filename),
		FilePath:         ing.ArchiveKey,
		ExternalFileName: ing.ExternalFileName,
		Status:           StatusProcessed,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.log.Info().Str("tenant_id", tenantID).Uint64("document_id", doc.ID).Str("store_id", storeID).Msg("document indexed")
	return doc, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Document, error) {
	return s.repo.ListByOwner(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID string, id uint64) (*Document, error) {
	return s.repo.GetForOwner(ctx, tenantID, id)
}

func (s *Service) Count(ctx context.Context, tenantID string) (int64, error) {
	return s.repo.CountByOwner(ctx, tenantID)
}

// Delete removes the record, then the archived binary and the uploaded file on a
// best effort basis. The tenant's store is left alone; content already imported
// into it may remain searchable.
func (s *Service) Delete(ctx context.Context, tenantID string, id uint64) error {
	doc, err := s.repo.GetForOwner(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	if doc.ExternalFileName != "" {
		if err := s.search.DeleteFile(ctx, doc.ExternalFileName); err != nil {
			s.log.Warn().Err(err).Str("file", doc.ExternalFileName).Msg("search file delete failed")
		}
	}
	if err := s.archive.Delete(ctx, doc.FilePath); err != nil {
		s.log.Warn().Err(err).Str("key", doc.FilePath).Msg("archive delete failed")
	}
	return nil
}
