package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vision-webapi/internal/database"
	mw "vision-webapi/internal/middleware"
	"vision-webapi/internal/repositories"
	"vision-webapi/internal/services"
	"vision-webapi/internal/utils"
)

const testSecret = "handlers-test-secret"

type testServer struct {
	app       *fiber.App
	sessions  *services.SessionManager
	auditor   services.LoginAuditor
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	dir := t.TempDir()
	db, err := database.OpenSQLite(filepath.Join(dir, "app.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, logger))

	users := repositories.NewUserRepository(db, logger)
	auth := services.NewAuthService(users, utils.NewPasswordHasher(bcrypt.MinCost), logger)
	auditor := services.NewLoginAuditor(repositories.NewLoginAttemptRepository(db, logger), logger, nil)
	ledger := services.NewUploadLedger(repositories.NewUploadRepository(db, logger), logger)
	sessions := services.NewSessionManager(auth, auditor, time.Hour, logger)
	uploadDir := filepath.Join(dir, "uploads")

	app := fiber.New()
	app.Use(mw.RequestLoggers(logger, nil))
	api := app.Group("/api/v1")
	protect := mw.Protected(testSecret, sessions)
	NewAuthHandler(auth, sessions, testSecret, time.Hour).
		SetupAuthRoutes(api, mw.NewLoginRateLimiter(600, 100).Handler(), protect)
	protected := api.Group("/", protect)
	NewProfileHandler(services.NewProfileService(users, logger), auditor).SetupProfileRoutes(protected)
	NewUploadHandler(ledger, uploadDir, 1).SetupUploadRoutes(protected)
	NewNavigationHandler(sessions).SetupNavigationRoutes(protected)

	return &testServer{app: app, sessions: sessions, auditor: auditor, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, mw.BearerPrefix+token)
	}
	return s.do(t, req)
}

func (s *testServer) register(t *testing.T, username, email, password string) int64 {
	t.Helper()
	status, body := s.doJSON(t, fiber.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": username, "email": email, "password": password,
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var out struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.ID
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := s.doJSON(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": username, "password": password,
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func multipartUpload(t *testing.T, token, fileName, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set(fiber.HeaderContentType, contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, mw.BearerPrefix+token)
	return req
}
