package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/studyhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegService struct {
	signupRole string
	signupReq  domain.SignupRequest
	idemKey    string
	signupErr  error

	verifyRole string
	verifyReq  domain.VerifyOTPRequest
	verifyErr  error

	resendID    string
	resendEmail string
}

func (f *fakeRegService) Signup(_ context.Context, role string, req domain.SignupRequest, idemKey string) (string, error) {
	f.signupRole, f.signupReq, f.idemKey = role, req, idemKey
	if f.signupErr != nil {
		return "", f.signupErr
	}
	return "acc1", nil
}

func (f *fakeRegService) ResendOTP(_ context.Context, role, pendingID, email string) error {
	f.resendID, f.resendEmail = pendingID, email
	return nil
}

func (f *fakeRegService) VerifyOTP(_ context.Context, role string, req domain.VerifyOTPRequest) (string, *domain.Account, error) {
	f.verifyRole, f.verifyReq = role, req
	if f.verifyErr != nil {
		return "", nil, f.verifyErr
	}
	return "tok", &domain.Account{AccountID: req.AccountID, Status: domain.StatusActive}, nil
}

func TestSignup_StudentIdentifierField(t *testing.T) {
	svc := &fakeRegService{}
	h := NewRegistrationHandler(svc)

	body := `{"first_name":"Asha","last_name":"Iyer","email":"a@c.edu",
		"college_reg_number":"CRN12345","password":"supersecret",
		"confirm_password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/students/signup", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	rr := httptest.NewRecorder()
	h.Signup(domain.RoleStudent)(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, domain.RoleStudent, svc.signupRole)
	assert.Equal(t, "CRN12345", svc.signupReq.Identifier)
	assert.Equal(t, "key-1", svc.idemKey)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "acc1", resp["account_id"])
}

func TestSignup_FacultyIdentifierField(t *testing.T) {
	svc := &fakeRegService{}
	h := NewRegistrationHandler(svc)

	body := `{"first_name":"Ravi","last_name":"Menon","email":"r@c.edu",
		"employee_id":"EMP00123","password":"supersecret",
		"confirm_password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/faculty/signup", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Signup(domain.RoleFaculty)(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "EMP00123", svc.signupReq.Identifier)
}

func TestSignup_MalformedJSON(t *testing.T) {
	h := NewRegistrationHandler(&fakeRegService{})
	req := httptest.NewRequest(http.MethodPost, "/v1/students/signup", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Signup(domain.RoleStudent)(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignup_ConflictMapsTo400(t *testing.T) {
	h := NewRegistrationHandler(&fakeRegService{signupErr: domain.ErrConflict})
	req := httptest.NewRequest(http.MethodPost, "/v1/students/signup", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	h.Signup(domain.RoleStudent)(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyOTP_ReturnsTokenAndAccount(t *testing.T) {
	svc := &fakeRegService{}
	h := NewRegistrationHandler(svc)

	body := `{"account_id":"acc1","otp":"123456","first_name":"Asha",
		"last_name":"Iyer","email":"a@c.edu","college_reg_number":"CRN12345",
		"password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/students/verify-otp", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.VerifyOTP(domain.RoleStudent)(rr, req)

	// Verification is what actually creates the durable account, hence 201.
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "123456", svc.verifyReq.Code)
	assert.Equal(t, "CRN12345", svc.verifyReq.Identifier)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp["token"])
}

func TestVerifyOTP_InvalidCodeMapsTo400(t *testing.T) {
	h := NewRegistrationHandler(&fakeRegService{verifyErr: domain.ErrInvalidOrExpired})
	req := httptest.NewRequest(http.MethodPost, "/v1/students/verify-otp", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	h.VerifyOTP(domain.RoleStudent)(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendOTP_PassesThrough(t *testing.T) {
	svc := &fakeRegService{}
	h := NewRegistrationHandler(svc)

	body := `{"account_id":"acc1","email":"a@c.edu"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/students/send-otp", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.SendOTP(domain.RoleStudent)(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "acc1", svc.resendID)
	assert.Equal(t, "a@c.edu", svc.resendEmail)
}
