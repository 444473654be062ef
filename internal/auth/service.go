package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tutorhub/tutorhub-back/internal/config"
)

// Identity is what the identity collaborator supplies. The core treats all
// three fields as opaque input.
type Identity struct {
	Subject  string
	Role     string
	CampusID string
}

// Directory maps an authenticated subject onto its role and campus claim.
type Directory interface {
	Identify(ctx context.Context, subject string) (Identity, error)
}

var googleOauthConfig *oauth2.Config

func InitGoogle(cfg *config.Config) {
	googleOauthConfig = &oauth2.Config{
		RedirectURL:  "http://localhost:8000/auth/google/callback",
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleSecret,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// @Summary      Login with Google
// @Description  Redirects to the Google consent screen
// @Tags         auth
// @Produce      json
// @Router       /auth/google/login [get]
func GoogleLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		url := googleOauthConfig.AuthCodeURL("state")
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

// @Summary      Google Callback
// @Description  Exchanges the code and issues platform tokens
// @Tags         auth
// @Produce      json
// @Router       /auth/google/callback [get]
func GoogleCallbackHandler(cfg *config.Config, dir Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		token, err := googleOauthConfig.Exchange(context.Background(), code)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange token"})
			return
		}

		resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get user info"})
			return
		}
		defer resp.Body.Close()

		var userInfo struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse user info"})
			return
		}

		ident, err := dir.Identify(c.Request.Context(), userInfo.Email)
		if err != nil {
			log.Println("identify failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve identity"})
			return
		}

		access, refresh, err := IssueTokens(cfg, ident)
		if err != nil {
			log.Println(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign tokens"})
			return
		}

		c.JSON(200, gin.H{
			"access_token":  access,
			"refresh_token": refresh,
			"subject":       ident.Subject,
			"role":          ident.Role,
		})
	}
}

// IssueTokens signs a short-lived access token and a long-lived refresh
// token carrying the identity claims.
func IssueTokens(cfg *config.Config, ident Identity) (access, refresh string, err error) {
	jwtSecret := []byte(cfg.JWTSecret)

	accessClaims := jwt.MapClaims{
		"sub":       ident.Subject,
		"role":      ident.Role,
		"campus_id": ident.CampusID,
		"exp":       time.Now().Add(15 * time.Minute).Unix(),
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"sub":       ident.Subject,
		"role":      ident.Role,
		"campus_id": ident.CampusID,
		"exp":       time.Now().Add(7 * 24 * time.Hour).Unix(),
		"type":      "refresh",
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
