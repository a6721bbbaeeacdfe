package domain

import "time"

// Account roles. The role decides which table the record lives in and which
// external identifier it carries (college registration number vs employee ID).
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

// Account statuses. A pending record has had its identity minted at signup
// but is not durable until OTP verification activates it.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

type Account struct {
	AccountID    string    `json:"id" dynamodbav:"account_id"`
	Role         string    `json:"role" dynamodbav:"role"`
	FirstName    string    `json:"first_name" dynamodbav:"first_name"`
	LastName     string    `json:"last_name" dynamodbav:"last_name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Identifier   string    `json:"identifier" dynamodbav:"identifier"`
	Phone        string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Status       string    `json:"status" dynamodbav:"status"`
	AssetKey     string    `json:"-" dynamodbav:"asset_key"`
	AssetURL     string    `json:"asset_url,omitempty" dynamodbav:"-"`
	ExpiresAt    int64     `json:"-" dynamodbav:"expires_at,omitempty"` // TTL for pending records (Unix seconds)
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// SignupRequest carries the role-neutral signup payload. Handlers map the
// role-specific JSON field (college_reg_number / employee_id) onto Identifier.
type SignupRequest struct {
	FirstName       string `json:"first_name" validate:"required,min=2,max=50"`
	LastName        string `json:"last_name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Identifier      string `json:"identifier" validate:"required,alphanum,min=5,max=20"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Phone           string `json:"phone" validate:"omitempty,e164"`
}

// VerifyOTPRequest re-submits the full profile alongside the code, matching
// the two-phase registration flow: nothing durable exists before this call.
type VerifyOTPRequest struct {
	AccountID  string `json:"account_id" validate:"required"`
	Code       string `json:"otp" validate:"required,len=6,numeric"`
	FirstName  string `json:"first_name" validate:"required,min=2,max=50"`
	LastName   string `json:"last_name" validate:"required,min=2,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Identifier string `json:"identifier" validate:"required,alphanum,min=5,max=20"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateAccountRequest struct {
	FirstName  *string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName   *string `json:"last_name" validate:"omitempty,min=2,max=50"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Identifier *string `json:"identifier" validate:"omitempty,alphanum,min=5,max=20"`
	Password   *string `json:"password" validate:"omitempty,min=8,max=72"`
}
