package uploads

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"kaleidorium/internal/infra/storage"
	"kaleidorium/internal/security/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)

func multipartRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(t *testing.T, policy upload.Policy, req *http.Request) (*httptest.ResponseRecorder, *upload.File) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var got *upload.File
	r := gin.New()
	r.POST("/upload", func(c *gin.Context) {
		f, ok := ReadFile(c, "file", policy)
		if !ok {
			return
		}
		got = f
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, got
}

func TestReadFile_Valid(t *testing.T) {
	w, f := serve(t, upload.ArtworkPolicy, multipartRequest(t, "art.png", "image/png", png))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	require.NotNil(t, f)
	assert.Equal(t, "png", f.Ext)
}

func TestReadFile_TooLarge(t *testing.T) {
	policy := upload.Policy{MaxSize: 16, AllowedTypes: []string{upload.MimePNG}}
	w, _ := serve(t, policy, multipartRequest(t, "art.png", "image/png", png))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "file_too_large")
}

func TestReadFile_Rejected(t *testing.T) {
	w, _ := serve(t, upload.ArtworkPolicy, multipartRequest(t, "art.png", "image/png", []byte("<script>alert(1)</script>")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "signature_mismatch")
}

func TestReadFile_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	w, _ := serve(t, upload.ArtworkPolicy, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutAndDiscard(t *testing.T) {
	st := storage.NewMemoryStore()
	f, err := upload.Validate(upload.ArtworkPolicy, "a.png", "image/png", png)
	require.NoError(t, err)

	img, err := Put(context.Background(), st, "artwork-images", "7", f)
	require.NoError(t, err)
	assert.Equal(t, "7/"+f.StorageName, img.ObjectKey)
	assert.True(t, st.Has("artwork-images", img.ObjectKey))

	Discard(context.Background(), st, img)
	assert.False(t, st.Has("artwork-images", img.ObjectKey))
}
