package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"kaleidorium/config"
	"kaleidorium/database"
	"kaleidorium/internal/apierr"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleIssuer = "https://accounts.google.com"

// Discovery documents and JWKS are cacheable; keep them in memory between
// sign-ins.
var (
	oidcHTTPClient = &http.Client{Transport: httpcache.NewTransport(httpcache.NewMemoryCache())}

	providerMu sync.Mutex
	provider   *oidc.Provider
)

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.GOOGLE_CLIENT_ID,
		ClientSecret: config.GOOGLE_CLIENT_SECRET,
		RedirectURL:  config.GOOGLE_REDIRECT_URL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func googleProvider(ctx context.Context) (*oidc.Provider, error) {
	providerMu.Lock()
	defer providerMu.Unlock()
	if provider != nil {
		return provider, nil
	}
	p, err := oidc.NewProvider(oidc.ClientContext(ctx, oidcHTTPClient), googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}
	provider = p
	return p, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /api/auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	if config.GOOGLE_CLIENT_ID == "" {
		apierr.Message(c, apierr.NotFound, "Google sign-in is not enabled")
		return
	}
	state, err := randomState()
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("oauth_state", state, 300, "/", "", !config.IsDev(), true)

	c.Redirect(http.StatusFound, googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /api/auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		apierr.Message(c, apierr.Validation, "Missing code or state")
		return
	}
	cookieState, err := c.Cookie("oauth_state")
	if err != nil || cookieState != state {
		apierr.Message(c, apierr.Validation, "Invalid OAuth state")
		return
	}
	ctx := c.Request.Context()

	tok, err := googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		apierr.Respond(c, apierr.Authentication, err, nil)
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		apierr.Respond(c, apierr.Authentication, errors.New("missing id_token"), nil)
		return
	}

	claims, err := verifyGoogleIDToken(ctx, rawIDToken)
	if err != nil {
		apierr.Respond(c, apierr.Authentication, err, nil)
		return
	}

	user, err := findOrCreateGoogleUser(database.DB.WithContext(ctx), claims)
	if err != nil {
		apierr.Respond(c, apierr.Database, err, nil)
		return
	}

	tokenString, err := IssueToken(user)
	if err != nil {
		apierr.Respond(c, apierr.Server, err, nil)
		return
	}

	redirect := config.GOOGLE_FRONTEND_REDIRECT
	if redirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": tokenString, "user": user})
		return
	}
	c.Redirect(http.StatusFound, redirect+"?token="+url.QueryEscape(tokenString))
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func verifyGoogleIDToken(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	p, err := googleProvider(ctx)
	if err != nil {
		return nil, err
	}
	verifier := p.Verifier(&oidc.Config{ClientID: config.GOOGLE_CLIENT_ID})

	idToken, err := verifier.Verify(oidc.ClientContext(ctx, oidcHTTPClient), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, errors.New("id_token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google email not verified")
	}
	claims.Email = strings.ToLower(claims.Email)
	return &claims, nil
}

// findOrCreateGoogleUser matches on google_sub, then on email (linking the
// account), and otherwise creates a verified collector.
func findOrCreateGoogleUser(db *gorm.DB, gc *googleIDClaims) (users.User, error) {
	var user users.User

	err := db.Where("google_sub = ?", gc.Sub).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return users.User{}, err
	}

	err = db.Where("email = ?", gc.Email).First(&user).Error
	if err == nil {
		sub := gc.Sub
		if err := db.Model(&user).Updates(map[string]interface{}{
			"google_sub":  sub,
			"is_verified": true,
		}).Error; err != nil {
			return users.User{}, err
		}
		user.GoogleSub = &sub
		user.IsVerified = true
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return users.User{}, err
	}

	sub := gc.Sub
	user = users.User{
		Email:        gc.Email,
		AuthProvider: "google",
		GoogleSub:    &sub,
		Role:         users.RoleCollector,
		IsVerified:   true,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&profiles.Collector{
			UserID:    user.ID,
			FirstName: firstNonEmpty(gc.GivenName, gc.Name),
			LastName:  gc.FamilyName,
		}).Error
	})
	return user, err
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
