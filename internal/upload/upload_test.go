package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart.FileHeader by round-tripping a request
// through the standard multipart parser.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="images"; filename="` + filename + `"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	files := req.MultipartForm.File["images"]
	require.Len(t, files, 1)
	return files[0]
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		wantExt     string
		wantErr     string
	}{
		{"jpeg by content type", "photo.bin", "image/jpeg", ".jpg", ""},
		{"png by content type", "photo.bin", "image/png", ".png", ""},
		{"webp by content type", "photo.bin", "image/webp", ".webp", ""},
		{"jpeg by extension", "photo.JPEG", "application/octet-stream", ".jpg", ""},
		{"png by extension", "photo.png", "application/octet-stream", ".png", ""},
		{"pdf rejected", "doc.pdf", "application/pdf", "", "only JPG, PNG and WEBP"},
		{"no hint at all", "file", "application/octet-stream", "", "only JPG, PNG and WEBP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fh := fileHeader(t, tt.filename, tt.contentType, []byte("data"))
			ext, err := validate(fh)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestValidateRejectsOversize(t *testing.T) {
	fh := fileHeader(t, "big.jpg", "image/jpeg", []byte("data"))
	fh.Size = MaxImageSize + 1

	_, err := validate(fh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 MB limit")
}

func TestDiskStoreSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	fh := fileHeader(t, "photo.jpg", "image/jpeg", []byte("jpeg-bytes"))
	url, err := s.Save(context.Background(), fh)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "/uploads/"), "url %q", url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), "url %q", url)

	written, err := os.ReadFile(filepath.Join(dir, "uploads", strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), written)
}

func TestDiskStoreUniqueNames(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	fh := fileHeader(t, "photo.jpg", "image/jpeg", []byte("x"))
	first, err := s.Save(context.Background(), fh)
	require.NoError(t, err)
	second, err := s.Save(context.Background(), fh)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDiskStoreRejectsBadType(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	fh := fileHeader(t, "doc.pdf", "application/pdf", []byte("%PDF"))
	_, err = s.Save(context.Background(), fh)
	assert.Error(t, err)
}
