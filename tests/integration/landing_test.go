//go:build integration

package integration

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/landing/internal/models"
	"github.com/BradenHooton/landing/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

func setup(t *testing.T, maxRequests int) *TestServer {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	ts := NewTestServer(testDB.DB, maxRequests)
	t.Cleanup(ts.Close)
	return ts
}

// ============================================================================
// Admin login
// ============================================================================

func TestAdminLogin_ProvisionedAdmin(t *testing.T) {
	ts := setup(t, 500)
	ctx := context.Background()

	require.NoError(t, ts.AuthService.ProvisionAdmins(ctx, []models.AdminAccount{
		{Email: "a@x.com", Password: "secret", Name: "Alice"},
	}))

	resp, cookie, err := ts.Login("A@X.com", "secret")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var body struct {
		Success bool `json:"success"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.True(t, body.Success)
	assert.Equal(t, "a@x.com", body.User.Email)
	assert.Equal(t, "Alice", body.User.Name)
	assert.Equal(t, models.RoleAdmin, body.User.Role)

	user, err := repositories.NewUserRepository(testDB.DB).FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.LastSignedIn)
	assert.WithinDuration(t, time.Now(), *user.LastSignedIn, 10*time.Second)

	me, err := ts.Request(http.MethodGet, "/api/admin/me", nil, cookie)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, me.StatusCode)

	var session map[string]interface{}
	require.NoError(t, ParseJSONResponse(me, &session))
	assert.Equal(t, true, session["authenticated"])
}

func TestAdminLogin_GenericFailures(t *testing.T) {
	ts := setup(t, 500)
	ctx := context.Background()

	email, password := TestUser("admin")
	_, err := SeedUser(ctx, testDB.DB, email, password, models.RoleAdmin)
	require.NoError(t, err)

	wrongPassword, cookie, err := ts.Login(email, "not-the-password")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Nil(t, cookie)

	unknownEmail, _, err := ts.Login("nobody@example.com", password)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.StatusCode)

	a, err := io.ReadAll(wrongPassword.Body)
	require.NoError(t, err)
	b, err := io.ReadAll(unknownEmail.Body)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAdminLogin_NonAdminForbidden(t *testing.T) {
	ts := setup(t, 500)

	email, password := TestUser("plain")
	_, err := SeedUser(context.Background(), testDB.DB, email, password, models.RoleUser)
	require.NoError(t, err)

	resp, cookie, err := ts.Login(email, password)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, cookie)
}

func TestProvisionAdmins_Idempotent(t *testing.T) {
	ts := setup(t, 500)
	ctx := context.Background()
	accounts := []models.AdminAccount{{Email: "ops@x.com", Password: "first", Name: "Ops"}}

	require.NoError(t, ts.AuthService.ProvisionAdmins(ctx, accounts))
	require.NoError(t, ts.AuthService.ProvisionAdmins(ctx, accounts))

	var count int
	require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM landing_users WHERE email = $1", "ops@x.com").Scan(&count))
	assert.Equal(t, 1, count)

	// A password change in config takes effect on the next start
	accounts[0].Password = "second"
	require.NoError(t, ts.AuthService.ProvisionAdmins(ctx, accounts))

	resp, _, err := ts.Login("ops@x.com", "first")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _, err = ts.Login("ops@x.com", "second")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProvisionAdmins_LongEmail(t *testing.T) {
	ts := setup(t, 500)
	ctx := context.Background()

	label := strings.Repeat("d", 60)
	email := "admin@" + strings.Join([]string{label, label, label, label}, ".") + ".com"
	require.Greater(t, len(email), 250)

	require.NoError(t, ts.AuthService.ProvisionAdmins(ctx, []models.AdminAccount{
		{Email: email, Password: "secret", Name: "Long"},
	}))

	user, err := repositories.NewUserRepository(testDB.DB).FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, repositories.LocalOpenID(email), user.OpenID)

	resp, cookie, err := ts.Login(email, "secret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, cookie)
}

// ============================================================================
// Contact form
// ============================================================================

func TestContact_SubmitListExport(t *testing.T) {
	ts := setup(t, 500)
	ctx := context.Background()

	require.NoError(t, ts.AuthService.ProvisionAdmins(ctx, []models.AdminAccount{
		{Email: "a@x.com", Password: "secret"},
	}))

	for _, suffix := range []string{"one", "two"} {
		resp, err := ts.Request(http.MethodPost, "/api/contact", TestContact(suffix), nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	ts.ContactService.Wait()
	assert.Equal(t, 2, ts.Notifier.SentCount())

	resp, err := ts.Request(http.MethodGet, "/api/admin/contacts", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	_, cookie, err := ts.Login("a@x.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, cookie)

	resp, err = ts.Request(http.MethodGet, "/api/admin/contacts?limit=1", nil, cookie)
	require.NoError(t, err)
	var page struct {
		Contacts []models.ContactSubmission `json:"contacts"`
		Limit    int                        `json:"limit"`
	}
	require.NoError(t, ParseJSONResponse(resp, &page))
	require.Len(t, page.Contacts, 1)
	assert.Equal(t, 1, page.Limit)
	assert.Equal(t, "lead-two@example.com", page.Contacts[0].Email, "newest first, email lowercased")

	resp, err = ts.Request(http.MethodGet, "/api/admin/contacts/export.csv", nil, cookie)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "full_name", "email", "phone", "created_at"}, records[0])
}

// ============================================================================
// Rate limiting and health
// ============================================================================

func TestRateLimit_AppliesToEveryRoute(t *testing.T) {
	ts := setup(t, 3)

	for i := 0; i < 3; i++ {
		resp, err := ts.Request(http.MethodGet, "/health", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := ts.Request(http.MethodPost, "/api/admin/login", map[string]string{"email": "a@x.com", "password": "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Contains(t, msg, "Rate limit exceeded")
}

func TestHealth_DatabaseReachable(t *testing.T) {
	ts := setup(t, 500)

	resp, err := ts.Request(http.MethodGet, "/health", nil, nil)
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
