package material

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/studyhub-api/internal/domain"
	"github.com/studyhub-api/internal/pkg/id"
	"github.com/studyhub-api/internal/pkg/validate"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Meta        domain.CreateMaterialRequest
	// OwnerIdentifier is the uploading faculty member's employee ID, taken
	// from their authenticated profile, never from the request body.
	OwnerIdentifier string
}

// DownloadResult carries the object stream plus the attachment headers the
// transport layer should set.
type DownloadResult struct {
	Body        io.ReadCloser
	Material    *domain.Material
	Filename    string
	ContentType string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Material, error)
	ListByOwner(ctx context.Context, ownerIdentifier string) ([]domain.Material, error)
	ListAll(ctx context.Context) ([]domain.Material, error)
	// Delete removes metadata and best-effort deletes the stored binary.
	// callerIdentifier must match the material's owner identifier.
	Delete(ctx context.Context, materialID, callerIdentifier string) error
	// Download streams the binary. An empty callerIdentifier is the public
	// variant with no ownership check.
	Download(ctx context.Context, materialID, callerIdentifier string) (*DownloadResult, error)
}

type materialStore interface {
	Put(ctx context.Context, m *domain.Material) error
	Get(ctx context.Context, materialID string) (*domain.Material, error)
	ListByOwner(ctx context.Context, ownerIdentifier string) ([]domain.Material, error)
	ListAll(ctx context.Context) ([]domain.Material, error)
	Delete(ctx context.Context, materialID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    materialStore
	objects objectStore
}

func NewService(repo materialStore, objects objectStore) Service {
	return &service{repo: repo, objects: objects}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.Material, error) {
	if err := validate.Struct(input.Meta); err != nil {
		return nil, err
	}
	if input.Reader == nil || input.Filename == "" {
		return nil, fmt.Errorf("file is required: %w", domain.ErrValidation)
	}

	safeName := sanitizeFilename(input.Filename)
	materialID := id.New()
	key := fmt.Sprintf("materials/%s/%s_%s", input.OwnerIdentifier, materialID, safeName)

	contentType := input.ContentType
	if contentType == "" {
		contentType = contentTypeFromName(safeName)
	}
	if _, err := s.objects.Upload(ctx, key, input.Reader, contentType); err != nil {
		return nil, err
	}

	m := &domain.Material{
		MaterialID:       materialID,
		Title:            input.Meta.Title,
		Subject:          input.Meta.Subject,
		Description:      input.Meta.Description,
		CourseCode:       input.Meta.CourseCode,
		Tags:             input.Meta.Tags,
		OwnerIdentifier:  input.OwnerIdentifier,
		ObjectKey:        key,
		OriginalFilename: input.Filename,
		UploadedAt:       time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerIdentifier string) ([]domain.Material, error) {
	if ownerIdentifier == "" {
		return nil, fmt.Errorf("employee_id is required: %w", domain.ErrValidation)
	}
	return s.repo.ListByOwner(ctx, ownerIdentifier)
}

func (s *service) ListAll(ctx context.Context) ([]domain.Material, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Delete(ctx context.Context, materialID, callerIdentifier string) error {
	m, err := s.repo.Get(ctx, materialID)
	if err != nil {
		return err
	}
	if m.OwnerIdentifier != callerIdentifier {
		return fmt.Errorf("material belongs to another faculty member: %w", domain.ErrForbidden)
	}
	// Binary deletion is best-effort: the metadata delete must go through
	// even when the object store is unavailable.
	if err := s.objects.Delete(ctx, m.ObjectKey); err != nil {
		slog.Warn("failed to delete material binary", "material_id", materialID, "err", err)
	}
	return s.repo.Delete(ctx, materialID)
}

func (s *service) Download(ctx context.Context, materialID, callerIdentifier string) (*DownloadResult, error) {
	m, err := s.repo.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if callerIdentifier != "" && m.OwnerIdentifier != callerIdentifier {
		return nil, fmt.Errorf("material belongs to another faculty member: %w", domain.ErrForbidden)
	}
	rc, err := s.objects.Download(ctx, m.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch material binary: %v: %w", err, domain.ErrDependency)
	}

	filename := m.OriginalFilename
	if filename == "" {
		// Fall back to the title plus whatever extension the stored key kept.
		ext := path.Ext(m.ObjectKey)
		if ext == "" {
			ext = ".bin"
		}
		filename = m.Title + ext
	}
	return &DownloadResult{
		Body:        rc,
		Material:    m,
		Filename:    filename,
		ContentType: contentTypeFromName(filename),
	}, nil
}

func contentTypeFromName(filename string) string {
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
