package auth

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"kaleidorium/config"
	"kaleidorium/database"
	"kaleidorium/internal/api/apitest"
	"kaleidorium/internal/domain/invitations"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/infra/mail"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	mailer *mail.MemoryMailer
	h      *Handler
	r      *gin.Engine
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	config.JWT_SECRET = "test-secret"
	config.APP_URL = "https://app.test"

	f := &fixture{
		db:     database.SetupTestDB(t),
		mailer: &mail.MemoryMailer{},
		now:    time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	f.h = NewHandler(f.mailer, profiles.NewFoundingCache(f.db, 100, time.Minute))
	f.h.Now = func() time.Time { return f.now }

	f.r = apitest.Router()
	f.r.POST("/register", f.h.Register)
	f.r.POST("/login", f.h.Login)
	f.r.GET("/verify", f.h.VerifyEmail)
	f.r.POST("/resend", f.h.ResendVerification)
	f.r.POST("/reset/request", f.h.RequestPasswordReset)
	f.r.POST("/reset/confirm", f.h.ConfirmPasswordReset)
	return f
}

func TestRegister_Artist(t *testing.T) {
	f := setup(t)

	w := apitest.Do(t, f.r, http.MethodPost, "/register", gin.H{
		"email":      "  Ada@Example.com ",
		"password":   "secret123",
		"role":       "artist",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret123")

	var u users.User
	require.NoError(t, f.db.Where("email = ?", "ada@example.com").First(&u).Error)
	assert.Equal(t, users.RoleArtist, u.Role)
	assert.False(t, u.IsVerified)
	require.NotNil(t, u.TrialEndAt)
	assert.Equal(t, f.now.AddDate(0, 0, 30).Unix(), u.TrialEndAt.Unix())

	var a profiles.Artist
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&a).Error)
	assert.Regexp(t, `^ada-lovelace-\d+$`, a.Slug)

	var vt users.VerificationToken
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&vt).Error)
	msg, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Contains(t, msg.Body, "https://app.test/verify?token="+vt.Token)
}

func TestRegister_Validation(t *testing.T) {
	f := setup(t)

	cases := []gin.H{
		{"email": "nope", "password": "secret123"},
		{"email": "a@b.co", "password": "short1"},
		{"email": "a@b.co", "password": "lettersonly"},
		{"email": "a@b.co", "password": "secret123", "role": "admin"},
		{"email": "a@b.co", "password": "secret123", "role": "gallery"},
		{"password": "secret123"},
	}
	for _, body := range cases {
		w := apitest.Do(t, f.r, http.MethodPost, "/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := setup(t)
	body := gin.H{"email": "dup@example.com", "password": "secret123"}

	require.Equal(t, http.StatusCreated, apitest.Do(t, f.r, http.MethodPost, "/register", body).Code)
	w := apitest.Do(t, f.r, http.MethodPost, "/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Resource already exists", apitest.Decode(t, w)["error"])
}

func TestRegister_WithInvitation(t *testing.T) {
	f := setup(t)
	gu, g := apitest.CreateGallery(t, f.db)
	inv := invitations.Invitation{
		Email:           "new.artist@example.com",
		FirstName:       "Nora",
		LastName:        "Field",
		Token:           "invite-token",
		InvitedByUserID: gu.ID,
		GalleryID:       &g.ID,
		ExpiresAt:       f.now.Add(invitations.TTL),
	}
	require.NoError(t, f.db.Create(&inv).Error)

	w := apitest.Do(t, f.r, http.MethodPost, "/register", gin.H{
		"email":        "new.artist@example.com",
		"password":     "secret123",
		"role":         "collector",
		"invite_token": "invite-token",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var u users.User
	require.NoError(t, f.db.Where("email = ?", "new.artist@example.com").First(&u).Error)
	assert.Equal(t, users.RoleArtist, u.Role)

	var a profiles.Artist
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&a).Error)
	require.NotNil(t, a.GalleryID)
	assert.Equal(t, g.ID, *a.GalleryID)
	assert.Equal(t, "Nora", a.FirstName)

	require.NoError(t, f.db.First(&inv, "id = ?", inv.ID).Error)
	assert.Equal(t, invitations.StatusAccepted, inv.Status)
	assert.NotNil(t, inv.AcceptedAt)
}

func TestRegister_InvitationEmailMismatch(t *testing.T) {
	f := setup(t)
	gu, _ := apitest.CreateGallery(t, f.db)
	require.NoError(t, f.db.Create(&invitations.Invitation{
		Email: "a@example.com", Token: "tok", InvitedByUserID: gu.ID, ExpiresAt: f.now.Add(time.Hour),
	}).Error)

	w := apitest.Do(t, f.r, http.MethodPost, "/register", gin.H{
		"email": "b@example.com", "password": "secret123", "invite_token": "tok",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	f.db.Model(&users.User{}).Where("email = ?", "b@example.com").Count(&count)
	assert.Zero(t, count)
}

func TestLogin(t *testing.T) {
	f := setup(t)
	u := apitest.CreateUser(t, f.db, users.RoleCollector)

	w := apitest.Do(t, f.r, http.MethodPost, "/login", gin.H{"email": u.Email, "password": apitest.Password})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, apitest.Decode(t, w)["token"])

	w = apitest.Do(t, f.r, http.MethodPost, "/login", gin.H{"email": u.Email, "password": "wrong123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", apitest.Decode(t, w)["error"])

	w = apitest.Do(t, f.r, http.MethodPost, "/login", gin.H{"email": "ghost@example.com", "password": "wrong123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, f.db.Model(&u).Update("is_verified", false).Error)
	w = apitest.Do(t, f.r, http.MethodPost, "/login", gin.H{"email": u.Email, "password": apitest.Password})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyEmail(t *testing.T) {
	f := setup(t)
	u := apitest.CreateUser(t, f.db, users.RoleCollector)
	require.NoError(t, f.db.Model(&u).Update("is_verified", false).Error)
	require.NoError(t, f.db.Create(&users.VerificationToken{
		UserID: u.ID, Token: "vt", Type: users.TokenEmailVerification, ExpiresAt: f.now.Add(time.Hour),
	}).Error)

	w := apitest.Do(t, f.r, http.MethodGet, "/verify?token=vt", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://app.test/signin?verified=1", w.Header().Get("Location"))

	require.NoError(t, f.db.First(&u, u.ID).Error)
	assert.True(t, u.IsVerified)

	w = apitest.Do(t, f.r, http.MethodGet, "/verify?token=vt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResendVerification_DoesNotLeakAccounts(t *testing.T) {
	f := setup(t)
	w := apitest.Do(t, f.r, http.MethodPost, "/resend", gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	_, sent := f.mailer.Last()
	assert.False(t, sent)

	u := apitest.CreateUser(t, f.db, users.RoleCollector)
	require.NoError(t, f.db.Model(&u).Update("is_verified", false).Error)
	w = apitest.Do(t, f.r, http.MethodPost, "/resend", gin.H{"email": u.Email})
	assert.Equal(t, http.StatusOK, w.Code)
	msg, sent := f.mailer.Last()
	require.True(t, sent)
	assert.Equal(t, u.Email, msg.To)
}

var codePattern = regexp.MustCompile(`code is (\d{6})`)

func requestCode(t *testing.T, f *fixture, email string) string {
	t.Helper()
	w := apitest.Do(t, f.r, http.MethodPost, "/reset/request", gin.H{"email": email})
	require.Equal(t, http.StatusOK, w.Code)
	msg, ok := f.mailer.Last()
	require.True(t, ok)
	m := codePattern.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2)
	return m[1]
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestPasswordReset_Success(t *testing.T) {
	f := setup(t)
	u := apitest.CreateUser(t, f.db, users.RoleCollector)
	code := requestCode(t, f, u.Email)

	w := apitest.Do(t, f.r, http.MethodPost, "/reset/confirm", gin.H{
		"email": u.Email, "code": code, "new_password": "newpass123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, f.db.First(&u, u.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte("newpass123")))

	// used codes cannot be replayed
	w = apitest.Do(t, f.r, http.MethodPost, "/reset/confirm", gin.H{
		"email": u.Email, "code": code, "new_password": "another123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordReset_UnknownEmailSameAnswer(t *testing.T) {
	f := setup(t)
	w := apitest.Do(t, f.r, http.MethodPost, "/reset/request", gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resetRequestReply, apitest.Decode(t, w)["message"])

	var count int64
	f.db.Model(&users.PasswordResetOTP{}).Count(&count)
	assert.Zero(t, count)
}

func TestPasswordReset_AttemptsAndLock(t *testing.T) {
	f := setup(t)
	u := apitest.CreateUser(t, f.db, users.RoleCollector)
	code := requestCode(t, f, u.Email)
	bad := wrongCode(code)

	for i := 1; i <= users.OTPMaxAttempts; i++ {
		w := apitest.Do(t, f.r, http.MethodPost, "/reset/confirm", gin.H{
			"email": u.Email, "code": bad, "new_password": "newpass123",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var otp users.PasswordResetOTP
		require.NoError(t, f.db.Where("email = ?", u.Email).First(&otp).Error)
		assert.Equal(t, i, otp.Attempts)
	}

	w := apitest.Do(t, f.r, http.MethodPost, "/reset/confirm", gin.H{
		"email": u.Email, "code": code, "new_password": "newpass123",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPasswordReset_Expired(t *testing.T) {
	f := setup(t)
	u := apitest.CreateUser(t, f.db, users.RoleCollector)
	code := requestCode(t, f, u.Email)

	f.now = f.now.Add(users.OTPTTL + time.Second)
	w := apitest.Do(t, f.r, http.MethodPost, "/reset/confirm", gin.H{
		"email": u.Email, "code": code, "new_password": "newpass123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid or expired code", apitest.Decode(t, w)["error"])
}

func TestPasswordReset_NewRequestReplacesOldCode(t *testing.T) {
	f := setup(t)
	u := apitest.CreateUser(t, f.db, users.RoleCollector)
	requestCode(t, f, u.Email)
	requestCode(t, f, u.Email)

	var count int64
	f.db.Model(&users.PasswordResetOTP{}).Where("email = ?", u.Email).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.co", NormalizeEmail(" A@B.co "))
	assert.Empty(t, NormalizeEmail("Ada <a@b.co>"))
	assert.Empty(t, NormalizeEmail("a@localhost"))
	assert.Empty(t, NormalizeEmail("not-an-email"))
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := randomCode(6)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
