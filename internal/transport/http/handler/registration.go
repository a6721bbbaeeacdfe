package handler

import (
	"net/http"

	"github.com/studyhub-api/internal/application/registration"
	"github.com/studyhub-api/internal/domain"
)

// signupPayload accepts both role-specific identifier spellings; the handler
// picks the one matching the route's role.
type signupPayload struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	CollegeRegNumber string `json:"college_reg_number"`
	EmployeeID       string `json:"employee_id"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	Phone            string `json:"phone"`
}

type verifyOTPPayload struct {
	AccountID        string `json:"account_id"`
	Code             string `json:"otp"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	CollegeRegNumber string `json:"college_reg_number"`
	EmployeeID       string `json:"employee_id"`
	Password         string `json:"password"`
}

type resendOTPPayload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

func identifierFor(role string, collegeRegNumber, employeeID string) string {
	if role == domain.RoleFaculty {
		return employeeID
	}
	return collegeRegNumber
}

type RegistrationHandler struct {
	svc registration.Service
}

func NewRegistrationHandler(svc registration.Service) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Signup returns the signup handler for one role. An optional Idempotency-Key
// header makes retried submissions safe.
func (h *RegistrationHandler) Signup(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p signupPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, err)
			return
		}
		req := domain.SignupRequest{
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			Email:           p.Email,
			Identifier:      identifierFor(role, p.CollegeRegNumber, p.EmployeeID),
			Password:        p.Password,
			ConfirmPassword: p.ConfirmPassword,
			Phone:           p.Phone,
		}
		pendingID, err := h.svc.Signup(r.Context(), role, req, r.Header.Get("Idempotency-Key"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"message":    "OTP sent to your email",
			"account_id": pendingID,
		})
	}
}

func (h *RegistrationHandler) SendOTP(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p resendOTPPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, err)
			return
		}
		if err := h.svc.ResendOTP(r.Context(), role, p.AccountID, p.Email); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email"})
	}
}

func (h *RegistrationHandler) VerifyOTP(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p verifyOTPPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, err)
			return
		}
		req := domain.VerifyOTPRequest{
			AccountID:  p.AccountID,
			Code:       p.Code,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Email:      p.Email,
			Identifier: identifierFor(role, p.CollegeRegNumber, p.EmployeeID),
			Password:   p.Password,
		}
		token, account, err := h.svc.VerifyOTP(r.Context(), role, req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "account verified",
			"token":   token,
			"account": account,
		})
	}
}
