package account

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/studyhub-api/internal/domain"
	"github.com/studyhub-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldEmail        = "email"
	fieldIdentifier   = "identifier"
	fieldPasswordHash = "password_hash"
	fieldAssetKey     = "asset_key"
)

type Service interface {
	Login(ctx context.Context, role, email, password string) (token string, account *domain.Account, err error)
	Profile(ctx context.Context, role, accountID string) (*domain.Account, error)
	Update(ctx context.Context, role, accountID string, req domain.UpdateAccountRequest) (*domain.Account, error)
	// AttachAsset stores a profile asset in the object store and links it to
	// the account. Returns the account with a fresh presigned asset URL.
	AttachAsset(ctx context.Context, role, accountID string, r io.Reader, filename, contentType string) (*domain.Account, error)
	// Delete removes the account. For faculty it first cascades over owned
	// materials (best-effort binary deletion) and outstanding OTP records.
	Delete(ctx context.Context, role, accountID string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
	Delete(ctx context.Context, accountID string) error
}

type materialStore interface {
	ListByOwner(ctx context.Context, ownerIdentifier string) ([]domain.Material, error)
	Delete(ctx context.Context, materialID string) error
}

type otpStore interface {
	DeleteByAccount(ctx context.Context, accountID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type tokenSigner interface {
	Sign(accountID, role string) (string, error)
}

type service struct {
	students    accountStore
	faculty     accountStore
	materials   materialStore
	otps        otpStore
	objects     objectStore
	signer      tokenSigner
	assetURLTTL time.Duration
}

type ServiceDeps struct {
	Students    accountStore
	Faculty     accountStore
	Materials   materialStore
	OTPs        otpStore
	Objects     objectStore
	Signer      tokenSigner
	AssetURLTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		students:    deps.Students,
		faculty:     deps.Faculty,
		materials:   deps.Materials,
		otps:        deps.OTPs,
		objects:     deps.Objects,
		signer:      deps.Signer,
		assetURLTTL: deps.AssetURLTTL,
	}
}

func (s *service) repos(role string) (own, other accountStore, err error) {
	switch role {
	case domain.RoleStudent:
		return s.students, s.faculty, nil
	case domain.RoleFaculty:
		return s.faculty, s.students, nil
	default:
		return nil, nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrValidation)
	}
}

func (s *service) Login(ctx context.Context, role, email, password string) (string, *domain.Account, error) {
	own, _, err := s.repos(role)
	if err != nil {
		return "", nil, err
	}
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}
	// A single generic error for unknown email and wrong password keeps
	// account existence unguessable.
	a, err := own.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	token, err := s.signer.Sign(a.AccountID, role)
	if err != nil {
		return "", nil, err
	}
	s.fillAssetURL(ctx, a)
	return token, a, nil
}

func (s *service) Profile(ctx context.Context, role, accountID string) (*domain.Account, error) {
	own, _, err := s.repos(role)
	if err != nil {
		return nil, err
	}
	a, err := own.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusActive {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	s.fillAssetURL(ctx, a)
	return a, nil
}

func (s *service) Update(ctx context.Context, role, accountID string, req domain.UpdateAccountRequest) (*domain.Account, error) {
	own, other, err := s.repos(role)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Email != nil {
		if _, err := other.GetByEmail(ctx, *req.Email); err == nil {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		if existing, err := own.GetByEmail(ctx, *req.Email); err == nil && existing.AccountID != accountID {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Identifier != nil {
		if existing, err := own.GetByIdentifier(ctx, *req.Identifier); err == nil && existing.AccountID != accountID {
			return nil, fmt.Errorf("identifier already in use: %w", domain.ErrConflict)
		}
		updates[fieldIdentifier] = *req.Identifier
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates[fieldPasswordHash] = string(hash)
	}

	if len(updates) == 0 {
		return s.Profile(ctx, role, accountID)
	}
	if err := own.Update(ctx, accountID, updates); err != nil {
		return nil, err
	}
	return s.Profile(ctx, role, accountID)
}

func (s *service) AttachAsset(ctx context.Context, role, accountID string, r io.Reader, filename, contentType string) (*domain.Account, error) {
	own, _, err := s.repos(role)
	if err != nil {
		return nil, err
	}
	if _, err := own.Get(ctx, accountID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("assets/%s/%s", accountID, sanitizeFilename(filename))
	if _, err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	if err := own.Update(ctx, accountID, map[string]interface{}{fieldAssetKey: key}); err != nil {
		return nil, err
	}
	return s.Profile(ctx, role, accountID)
}

func (s *service) Delete(ctx context.Context, role, accountID string) error {
	own, _, err := s.repos(role)
	if err != nil {
		return err
	}
	a, err := own.Get(ctx, accountID)
	if err != nil {
		return err
	}

	if role == domain.RoleFaculty {
		materials, err := s.materials.ListByOwner(ctx, a.Identifier)
		if err != nil {
			return err
		}
		for i := range materials {
			m := &materials[i]
			// Binary deletion is best-effort: a storage failure must not
			// abort the account deletion.
			if err := s.objects.Delete(ctx, m.ObjectKey); err != nil {
				slog.Warn("failed to delete material binary", "material_id", m.MaterialID, "err", err)
			}
			if err := s.materials.Delete(ctx, m.MaterialID); err != nil {
				return err
			}
		}
	}

	if a.AssetKey != "" {
		if err := s.objects.Delete(ctx, a.AssetKey); err != nil {
			slog.Warn("failed to delete profile asset", "account_id", accountID, "err", err)
		}
	}
	if err := s.otps.DeleteByAccount(ctx, accountID); err != nil {
		return err
	}
	return own.Delete(ctx, accountID)
}

func (s *service) fillAssetURL(ctx context.Context, a *domain.Account) {
	if a.AssetKey == "" {
		return
	}
	url, err := s.objects.PresignedURL(ctx, a.AssetKey, s.assetURLTTL)
	if err != nil {
		slog.Warn("failed to presign profile asset", "account_id", a.AccountID, "err", err)
		return
	}
	a.AssetURL = url
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
