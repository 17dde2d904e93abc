package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/docchat/internal/config"
)

type seenRequest struct {
	method, path, auth string
	body               []byte
}

type fakeS3 struct {
	mu   sync.Mutex
	reqs []seenRequest
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.reqs = append(f.reqs, seenRequest{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
	f.mu.Unlock()
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// isolateAWSEnv keeps the developer's AWS profile out of the credential chain.
func isolateAWSEnv(t *testing.T) {
	t.Helper()
	none := filepath.Join(t.TempDir(), "none")
	t.Setenv("AWS_CONFIG_FILE", none)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", none)
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_SESSION_TOKEN", "")
}

func s3Config(endpoint string) *config.Config {
	return &config.Config{
		StorageBackend: "s3",
		S3Endpoint:     endpoint,
		S3Region:       "us-east-1",
		S3Bucket:       "docs",
		S3UsePathStyle: true,
	}
}

func TestS3Storage_StaticCredentials(t *testing.T) {
	isolateAWSEnv(t)
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := s3Config(srv.URL)
	cfg.S3AccessKeyID, cfg.S3SecretKey = "static-key", "static-secret"
	st, err := NewS3Storage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte("%PDF-1.4 body")
	require.NoError(t, st.Upload(ctx, "tenant-1/abc/manual.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf"))
	require.NoError(t, st.Delete(ctx, "tenant-1/abc/manual.pdf"))

	require.Len(t, fake.reqs, 2)
	assert.Equal(t, http.MethodPut, fake.reqs[0].method)
	assert.Equal(t, "/docs/tenant-1/abc/manual.pdf", fake.reqs[0].path)
	assert.Equal(t, payload, fake.reqs[0].body)
	assert.Contains(t, fake.reqs[0].auth, "Credential=static-key/")
	assert.Equal(t, http.MethodDelete, fake.reqs[1].method)
}

func TestS3Storage_FallsBackToDefaultCredentialChain(t *testing.T) {
	isolateAWSEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "env-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	st, err := NewS3Storage(context.Background(), s3Config(srv.URL), zerolog.Nop())
	require.NoError(t, err)

	payload := []byte("%PDF-1.4 body")
	require.NoError(t, st.Upload(context.Background(), "t/k.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf"))

	require.Len(t, fake.reqs, 1)
	assert.Contains(t, fake.reqs[0].auth, "Credential=env-key/")
}

func TestS3Storage_RequiresBucket(t *testing.T) {
	cfg := s3Config("http://127.0.0.1:1")
	cfg.S3Bucket = " "

	_, err := NewS3Storage(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
