// Package apitest holds fixtures shared by handler tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"

	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const Password = "password123"

var seq atomic.Int64

// Router returns a gin engine in test mode.
func Router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// As fakes the JWT middleware for user.
func As(user users.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("role", user.Role)
		c.Next()
	}
}

// Do sends body (marshalled to JSON unless it is already a reader) through r.
func Do(t testing.TB, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		rd = b
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a JSON response body into a map.
func Decode(t testing.TB, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// CreateUser inserts a verified local user whose password is Password.
func CreateUser(t testing.TB, db *gorm.DB, role string) users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	u := users.User{
		Email:        fmt.Sprintf("%s%d@example.com", role, seq.Add(1)),
		Password:     &h,
		AuthProvider: "local",
		Role:         role,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func CreateArtist(t testing.TB, db *gorm.DB) (users.User, profiles.Artist) {
	t.Helper()
	u := CreateUser(t, db, users.RoleArtist)
	a := profiles.Artist{UserID: u.ID, Slug: fmt.Sprintf("artist-%d", u.ID), FirstName: "Ada", LastName: "Painter"}
	require.NoError(t, db.Create(&a).Error)
	return u, a
}

func CreateCollector(t testing.TB, db *gorm.DB) (users.User, profiles.Collector) {
	t.Helper()
	u := CreateUser(t, db, users.RoleCollector)
	col := profiles.Collector{UserID: u.ID, FirstName: "Cole"}
	require.NoError(t, db.Create(&col).Error)
	return u, col
}

func CreateGallery(t testing.TB, db *gorm.DB) (users.User, profiles.Gallery) {
	t.Helper()
	u := CreateUser(t, db, users.RoleGallery)
	g := profiles.Gallery{UserID: u.ID, Slug: fmt.Sprintf("gallery-%d", u.ID), Name: "North Gallery"}
	require.NoError(t, db.Create(&g).Error)
	return u, g
}

// CreateArtwork inserts an artwork for artistID. mutate may adjust fields
// before the insert.
func CreateArtwork(t testing.TB, db *gorm.DB, artistID uint, status string, mutate ...func(*works.Artwork)) works.Artwork {
	t.Helper()
	a := works.Artwork{
		ArtistID: artistID,
		Title:    fmt.Sprintf("Artwork %d", seq.Add(1)),
		Status:   status,
		Tags:     []string{},
		Styles:   []string{},
		Subjects: []string{},
		Colors:   []string{},
	}
	for _, m := range mutate {
		m(&a)
	}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func Float(v float64) *float64 { return &v }

// PNG is the smallest byte sequence the upload pipeline accepts as a PNG.
var PNG = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)

// DoMultipart posts a multipart form with one file part named "file".
func DoMultipart(t testing.TB, r http.Handler, method, path, filename, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
