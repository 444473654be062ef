package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/tutorhub-back/internal/config"
)

func testRouter(cfg *config.Config, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", AuthMiddleware(cfg))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"subject":   c.GetString("subject"),
			"role":      c.GetString("role"),
			"campus_id": c.GetString("campus_id"),
		})
	})
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	r := testRouter(cfg)

	access, _, err := IssueTokens(cfg, Identity{Subject: "alice", Role: "student", CampusID: "main"})
	require.NoError(t, err)

	w := get(r, access)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subject":"alice"`)
	assert.Contains(t, w.Body.String(), `"campus_id":"main"`)

	w = get(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token signed with a different secret is rejected.
	other, _, err := IssueTokens(&config.Config{JWTSecret: "other"}, Identity{Subject: "mallory"})
	require.NoError(t, err)
	w = get(r, other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	r := testRouter(cfg, "teacher", "admin")

	student, _, err := IssueTokens(cfg, Identity{Subject: "alice", Role: "student"})
	require.NoError(t, err)
	w := get(r, student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	teacher, _, err := IssueTokens(cfg, Identity{Subject: "bob", Role: "teacher"})
	require.NoError(t, err)
	w = get(r, teacher)
	assert.Equal(t, http.StatusOK, w.Code)
}
