package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/database"
	"photo-picker-backend/internal/models"
	"photo-picker-backend/internal/server"
	"photo-picker-backend/internal/services"
	"photo-picker-backend/internal/storage"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

type testServer struct {
	router    *gin.Engine
	uploadDir string
}

func newTestServer(t *testing.T, dbCfg *config.DatabaseConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()

	cfg := config.Defaults(config.EnvironmentLocal)
	cfg.UploadDir = filepath.Join(dir, "uploads")
	cfg.ThumbnailDir = filepath.Join(dir, "thumbnails")
	cfg.MaxUploadBytes = 1 << 20
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(dir, "images.db")
	cfg.Database.ConnectAttempts = 1
	cfg.Database.ConnectRetryDelay = time.Millisecond
	if dbCfg != nil {
		cfg.Database = *dbCfg
	}

	client, err := database.Connect(context.Background(), cfg.Database, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	blobs, thumbnails, err := storage.NewStores(context.Background(), cfg)
	require.NoError(t, err)

	service := services.NewImageService(client, blobs, thumbnails, cfg, logger)
	return &testServer{
		router:    server.NewRouter(cfg, service, logger),
		uploadDir: cfg.UploadDir,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, path, field, filename, contentType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestUploadThenList(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(uploadRequest(t, "/upload", "image", "snapshot", "image/jpeg", jpegBytes, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	uploaded := decode[models.UploadResponse](t, w)
	assert.True(t, uploaded.Success)
	assert.NotEmpty(t, uploaded.ImageID)
	assert.True(t, strings.HasSuffix(uploaded.Filename, ".jpg"))
	assert.Equal(t, int64(10), uploaded.FileSize)
	assert.Equal(t, "http://localhost:8000/images/"+uploaded.Filename, uploaded.ImageURL)

	req, _ := http.NewRequest("GET", "/images", nil)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[models.ImageListResponse](t, w)
	assert.True(t, list.Success)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, uploaded.ImageID, list.Images[0].ID)
	assert.Equal(t, []string{}, list.Images[0].Tags)
}

func TestUpload_AlternativeFieldAndMetadata(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(uploadRequest(t, "/images", "photo", "beach.png", "image/png", []byte("\x89PNG\r\n\x1a\n"), map[string]string{
		"description": "sunset",
		"tags":        "sea, sun ,",
		"user_id":     "user-7",
		"is_public":   "true",
		"width":       "640",
		"height":      "480",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	img := decode[models.UploadResponse](t, w).Image
	assert.Equal(t, "sunset", img.Description)
	assert.Equal(t, []string{"sea", "sun"}, img.Tags)
	assert.Equal(t, "user-7", img.UserID)
	assert.True(t, img.IsPublic)
	assert.Equal(t, int64(640), img.Width)
	assert.Equal(t, int64(480), img.Height)
	assert.Equal(t, "beach.png", img.OriginalFilename)
}

func TestUpload_Rejections(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(uploadRequest(t, "/upload", "image", "notes.txt", "text/plain", []byte("hello"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid file type", decode[models.ErrorResponse](t, w).Error)

	w = s.do(uploadRequest(t, "/upload", "attachment", "a.jpg", "image/jpeg", jpegBytes, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no file provided", decode[models.ErrorResponse](t, w).Error)

	w = s.do(uploadRequest(t, "/upload", "image", "a.jpg", "image/jpeg", jpegBytes, map[string]string{"width": "wide"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(uploadRequest(t, "/upload", "image", "big.jpg", "image/jpeg", make([]byte, 2<<20), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file too large", decode[models.ErrorResponse](t, w).Error)

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetImage_ByIDAndFile(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(uploadRequest(t, "/upload", "file", "a.jpg", "image/jpeg", jpegBytes, nil))
	require.Equal(t, http.StatusOK, w.Code)
	uploaded := decode[models.UploadResponse](t, w)

	req, _ := http.NewRequest("GET", "/images/"+uploaded.ImageID, nil)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uploaded.Filename, decode[models.ImageResponse](t, w).Filename)

	for _, path := range []string{"/images/" + uploaded.Filename, "/uploads/" + uploaded.Filename} {
		req, _ = http.NewRequest("GET", path, nil)
		w = s.do(req)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
		assert.Equal(t, jpegBytes, w.Body.Bytes())
	}
}

func TestGetImage_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{
		"/images/nonexistent.png",
		"/uploads/nonexistent.png",
		"/images/00000000-0000-0000-0000-000000000000",
		"/uploads/..",
	} {
		req, _ := http.NewRequest("GET", path, nil)
		w := s.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestUpdateImage(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(uploadRequest(t, "/upload", "image", "a.jpg", "image/jpeg", jpegBytes, map[string]string{"description": "before"}))
	require.Equal(t, http.StatusOK, w.Code)
	uploaded := decode[models.UploadResponse](t, w)

	req, _ := http.NewRequest("PUT", "/images/"+uploaded.ImageID, strings.NewReader(`{"tags":"a, b ,c","is_public":true}`))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decode[models.ImageResponse](t, w)
	assert.Equal(t, []string{"a", "b", "c"}, updated.Tags)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, "before", updated.Description)
	assert.True(t, updated.LastModified.After(uploaded.Image.LastModified))

	req, _ = http.NewRequest("PUT", "/images/"+uploaded.ImageID, strings.NewReader("description=after"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "after", decode[models.ImageResponse](t, w).Description)

	req, _ = http.NewRequest("PUT", "/images/not-a-uuid", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)
}

func TestDeleteImage(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(uploadRequest(t, "/upload", "image", "a.jpg", "image/jpeg", jpegBytes, nil))
	require.Equal(t, http.StatusOK, w.Code)
	uploaded := decode[models.UploadResponse](t, w)

	req, _ := http.NewRequest("DELETE", "/images/"+uploaded.ImageID, nil)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decode[models.DeleteResponse](t, w)
	assert.True(t, deleted.Success)
	assert.Equal(t, uploaded.ImageID, deleted.ImageID)

	req, _ = http.NewRequest("GET", "/images/"+uploaded.Filename, nil)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)

	req, _ = http.NewRequest("DELETE", "/images/"+uploaded.ImageID, nil)
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.True(t, health.UploadDirectory.Writable)
}

func TestHealth_DatabaseUnreachable(t *testing.T) {
	s := newTestServer(t, &config.DatabaseConfig{
		Driver:            config.DriverPostgres,
		URL:               "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		ConnectAttempts:   1,
		ConnectRetryDelay: time.Millisecond,
	})

	req, _ := http.NewRequest("GET", "/health", nil)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[models.HealthResponse](t, w)
	assert.Equal(t, "disconnected", health.Database)
	assert.Equal(t, "unhealthy", health.Status)

	req, _ = http.NewRequest("GET", "/images", nil)
	w = s.do(req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	list := decode[models.ImageListResponse](t, w)
	assert.False(t, list.Success)
	assert.NotNil(t, list.Images)
	assert.NotEmpty(t, list.Error)

	req, _ = http.NewRequest("GET", "/", nil)
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req, _ := http.NewRequest("GET", "/config", nil)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	summary := decode[map[string]interface{}](t, w)
	assert.Equal(t, config.EnvironmentLocal, summary["environment"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRun_GracefulShutdown(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second, logger)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
