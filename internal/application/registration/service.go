package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyhub-api/internal/domain"
	"github.com/studyhub-api/internal/notify"
	"github.com/studyhub-api/internal/pkg/id"
	"github.com/studyhub-api/internal/pkg/otp"
	"github.com/studyhub-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Service drives the registration state machine:
// Unregistered → PendingVerification → Active.
type Service interface {
	// Signup reserves a pending identity, persists an OTP and dispatches it.
	// idemKey is the optional Idempotency-Key header value; empty disables
	// deduplication.
	Signup(ctx context.Context, role string, req domain.SignupRequest, idemKey string) (pendingID string, err error)
	// ResendOTP persists and dispatches a fresh code. Earlier codes stay valid
	// until they expire; no state transition happens.
	ResendOTP(ctx context.Context, role, pendingID, email string) error
	// VerifyOTP consumes a matching unexpired code, activates the account and
	// issues a bearer token.
	VerifyOTP(ctx context.Context, role string, req domain.VerifyOTPRequest) (token string, account *domain.Account, err error)
}

type accountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	Activate(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
}

type otpStore interface {
	Put(ctx context.Context, o *domain.OTP) error
	GetValid(ctx context.Context, accountID, code string) (*domain.OTP, error)
	Delete(ctx context.Context, accountID, code string) error
}

type tokenSigner interface {
	Sign(accountID, role string) (string, error)
}

type dedupChecker interface {
	IsDuplicate(ctx context.Context, role, key string) (bool, error)
	Mark(ctx context.Context, role, key string) error
}

type service struct {
	students   accountStore
	faculty    accountStore
	otps       otpStore
	dispatcher notify.OTPSender
	signer     tokenSigner
	dedup      dedupChecker // nil when Redis is not configured
	otpTTL     time.Duration
	pendingTTL time.Duration
}

type ServiceDeps struct {
	Students   accountStore
	Faculty    accountStore
	OTPs       otpStore
	Dispatcher notify.OTPSender
	Signer     tokenSigner
	Dedup      dedupChecker
	OTPTTL     time.Duration
	PendingTTL time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		students:   deps.Students,
		faculty:    deps.Faculty,
		otps:       deps.OTPs,
		dispatcher: deps.Dispatcher,
		signer:     deps.Signer,
		dedup:      deps.Dedup,
		otpTTL:     deps.OTPTTL,
		pendingTTL: deps.PendingTTL,
	}
}

// repos returns the caller's own table and the other role's table. The email
// invariant spans the union of both.
func (s *service) repos(role string) (own, other accountStore, otherRole string, err error) {
	switch role {
	case domain.RoleStudent:
		return s.students, s.faculty, domain.RoleFaculty, nil
	case domain.RoleFaculty:
		return s.faculty, s.students, domain.RoleStudent, nil
	default:
		return nil, nil, "", fmt.Errorf("unknown role %q: %w", role, domain.ErrValidation)
	}
}

func (s *service) Signup(ctx context.Context, role string, req domain.SignupRequest, idemKey string) (string, error) {
	own, other, otherRole, err := s.repos(role)
	if err != nil {
		return "", err
	}
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	if req.Password != req.ConfirmPassword {
		return "", fmt.Errorf("passwords do not match: %w", domain.ErrValidation)
	}

	if idemKey != "" && s.dedup != nil {
		dup, err := s.dedup.IsDuplicate(ctx, role, idemKey)
		if err != nil {
			slog.Warn("signup dedup check failed", "err", err)
		} else if dup {
			return "", fmt.Errorf("signup already accepted for this idempotency key: %w", domain.ErrConflict)
		}
	}

	if err := s.checkEmailFree(ctx, own, other, otherRole, req.Email); err != nil {
		return "", err
	}
	if _, err := own.GetByIdentifier(ctx, req.Identifier); err == nil {
		return "", fmt.Errorf("%s already in use: %w", identifierName(role), domain.ErrConflict)
	}

	now := time.Now().UTC()
	pending := &domain.Account{
		AccountID:  id.New(),
		Role:       role,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Identifier: req.Identifier,
		Phone:      req.Phone,
		Status:     domain.StatusPending,
		ExpiresAt:  now.Add(s.pendingTTL).Unix(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := own.Put(ctx, pending); err != nil {
		return "", err
	}

	// The OTP must be durable before the notification goes out: a delivery
	// failure leaves a usable code behind and the resend path recovers.
	if err := s.issueOTP(ctx, pending.AccountID, req.Email, req.Phone); err != nil {
		return "", err
	}

	if idemKey != "" && s.dedup != nil {
		if err := s.dedup.Mark(ctx, role, idemKey); err != nil {
			slog.Warn("signup dedup mark failed", "err", err)
		}
	}
	return pending.AccountID, nil
}

func (s *service) ResendOTP(ctx context.Context, role, pendingID, email string) error {
	if _, _, _, err := s.repos(role); err != nil {
		return err
	}
	if pendingID == "" || email == "" {
		return fmt.Errorf("account id and email are required: %w", domain.ErrValidation)
	}
	return s.issueOTP(ctx, pendingID, email, "")
}

func (s *service) VerifyOTP(ctx context.Context, role string, req domain.VerifyOTPRequest) (string, *domain.Account, error) {
	own, other, otherRole, err := s.repos(role)
	if err != nil {
		return "", nil, err
	}
	if err := validate.Struct(req); err != nil {
		return "", nil, err
	}

	// The email or identifier may have been claimed between signup and
	// verification: pending records never block each other, so activation is
	// where uniqueness is actually enforced. Re-check both before activating.
	if err := s.checkEmailFree(ctx, own, other, otherRole, req.Email); err != nil {
		return "", nil, err
	}
	if existing, err := own.GetByIdentifier(ctx, req.Identifier); err == nil && existing.AccountID != req.AccountID {
		return "", nil, fmt.Errorf("%s already in use: %w", identifierName(role), domain.ErrConflict)
	}

	rec, err := s.otps.GetValid(ctx, req.AccountID, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid or expired OTP: %w", domain.ErrInvalidOrExpired)
		}
		return "", nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		AccountID:    req.AccountID,
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Identifier:   req.Identifier,
		PasswordHash: string(hash),
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Carry over attributes from the pending record when it still exists
	// (it may have aged out of its TTL without invalidating the OTP).
	if pending, err := own.Get(ctx, req.AccountID); err == nil {
		account.Phone = pending.Phone
		account.AssetKey = pending.AssetKey
		account.CreatedAt = pending.CreatedAt
	}

	if err := own.Activate(ctx, account); err != nil {
		return "", nil, err
	}
	if err := s.otps.Delete(ctx, rec.AccountID, rec.Code); err != nil {
		slog.Warn("failed to delete consumed otp", "account_id", rec.AccountID, "err", err)
	}

	token, err := s.signer.Sign(account.AccountID, role)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// checkEmailFree enforces the cross-collection invariant: an email registered
// under one role can never register under the other.
func (s *service) checkEmailFree(ctx context.Context, own, other accountStore, otherRole, email string) error {
	if _, err := other.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already in use by a %s: %w", otherRole, domain.ErrConflict)
	}
	if _, err := own.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	}
	return nil
}

func (s *service) issueOTP(ctx context.Context, accountID, email, phone string) error {
	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	rec := &domain.OTP{
		AccountID: accountID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.otpTTL).Unix(),
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		return err
	}
	return s.dispatcher.SendOTP(ctx, email, phone, code)
}

func identifierName(role string) string {
	if role == domain.RoleFaculty {
		return "employee ID"
	}
	return "college registration number"
}
