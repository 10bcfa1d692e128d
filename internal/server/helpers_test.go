package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"pinkbook/internal/config"
	"pinkbook/internal/kvstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "server-test-secret-0123456789abcdef"

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := &config.Config{
		Port:                 "0",
		Env:                  "test",
		JWTSecret:            testJWTSecret,
		AllowedOrigins:       "*",
		KVBackend:            config.KVBackendMemory,
		ImageStorageMode:     config.ImageModeEncoded,
		ImageMaxUploadSizeMB: 10,
		EncodedImageMaxDim:   256,
	}
	s := NewServerWithDeps(cfg, kvstore.NewMemoryStore(), nil)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func authToken(t *testing.T, s *Server) string {
	t.Helper()
	token, err := s.generateToken("ada@example.com")
	require.NoError(t, err)
	return token
}
