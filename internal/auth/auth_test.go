package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dorm-listing-portal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, "user-123", time.Hour)
	require.NoError(t, err)

	sub, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)

	_, err = ParseToken([]byte("other-secret"), token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := IssueToken(testSecret, "user-123", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "user-123", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestParseTokenWithoutSubject(t *testing.T) {
	token, err := IssueToken(testSecret, "", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", handlers...)
	return r
}

func serve(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	var seen string
	r := newRouter(JWTMiddleware(testSecret), func(c *gin.Context) {
		id, _ := ContextSession{}.CurrentUserID(c.Request.Context())
		seen = id
		assert.Equal(t, id, c.GetString(ContextKeyUserID))
		c.Status(http.StatusOK)
	})

	token, err := IssueToken(testSecret, "owner-1", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(r, token).Code)
	assert.Equal(t, "owner-1", seen)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "garbage").Code)
}

type fakeUsers map[string]*models.User

func (f fakeUsers) Get(ctx context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func TestRequireRole(t *testing.T) {
	owner := models.RoleOwner
	student := models.RoleStudent
	users := fakeUsers{
		"owner":   {ID: "owner", Role: &owner, RoleInitialized: true},
		"student": {ID: "student", Role: &student, RoleInitialized: true},
		"fresh":   {ID: "fresh"},
	}
	r := newRouter(JWTMiddleware(testSecret), RequireRole(users, models.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := map[string]int{
		"owner":   http.StatusOK,
		"student": http.StatusForbidden,
		"fresh":   http.StatusForbidden,
		"ghost":   http.StatusForbidden,
	}
	for id, want := range tests {
		token, err := IssueToken(testSecret, id, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, serve(r, token).Code, id)
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok)
}
