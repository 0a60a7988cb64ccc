package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/landing/internal/auth"
	"github.com/BradenHooton/landing/internal/models"
	"github.com/BradenHooton/landing/internal/services"
	pkghttp "github.com/BradenHooton/landing/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionCookie attaches a session cookie under the policy's name
func WithSessionCookie(req *http.Request, policy auth.CookiePolicy, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: policy.Name, Value: token})
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAdminAuthService implements AdminAuthServiceInterface for testing
type MockAdminAuthService struct {
	LoginFunc      func(ctx context.Context, email, password, clientIP string) (*services.LoginResult, error)
	IntrospectFunc func(ctx context.Context, token string) auth.Session
}

func (m *MockAdminAuthService) Login(ctx context.Context, email, password, clientIP string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, clientIP)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAdminAuthService) Introspect(ctx context.Context, token string) auth.Session {
	if m.IntrospectFunc != nil {
		return m.IntrospectFunc(ctx, token)
	}
	return auth.Session{Reason: auth.ReasonMissing}
}

// MockContactService implements ContactServiceInterface for testing
type MockContactService struct {
	SubmitFunc    func(ctx context.Context, in services.ContactInput) (*models.ContactSubmission, error)
	ListFunc      func(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	ExportCSVFunc func(ctx context.Context, w io.Writer) error
}

func (m *MockContactService) Submit(ctx context.Context, in services.ContactInput) (*models.ContactSubmission, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, in)
	}
	return &models.ContactSubmission{ID: "contact-1", FullName: in.FullName, Email: in.Email, Phone: in.Phone}, nil
}

func (m *MockContactService) List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.ContactSubmission{}, nil
}

func (m *MockContactService) ExportCSV(ctx context.Context, w io.Writer) error {
	if m.ExportCSVFunc != nil {
		return m.ExportCSVFunc(ctx, w)
	}
	_, err := io.WriteString(w, "id,full_name,email,phone,created_at\n")
	return err
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) HealthCheck(ctx context.Context) error {
	return m.Err
}
