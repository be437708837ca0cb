package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/config"
	"salonbook/models"
)

type fakeAuth struct {
	adminID  int64
	masterID int64
}

func (f *fakeAuth) ResolveUser(_ context.Context, externalID int64, name string, _, _ *string) (*models.User, error) {
	return &models.User{TelegramID: externalID, Name: name}, nil
}

func (f *fakeAuth) IsAdmin(_ context.Context, externalID int64) bool {
	return externalID == f.adminID
}

func (f *fakeAuth) IsMaster(_ context.Context, externalID int64) (*models.Master, bool) {
	if externalID != f.masterID {
		return nil, false
	}
	return &models.Master{ID: 7, TelegramID: &externalID, IsActive: true}, true
}

const testSecret = "test-secret"

func signToken(t *testing.T, externalID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  externalID,
		"name": "Ann",
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

type principal struct {
	ExternalID int64 `json:"external_id"`
	IsAdmin    bool  `json:"is_admin"`
}

func authRouter(auth *fakeAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", JWTAuthMiddleware(auth), func(c *gin.Context) {
		id, _ := c.Get(CtxExternalID)
		c.JSON(http.StatusOK, principal{
			ExternalID: id.(int64),
			IsAdmin:    c.GetBool(CtxIsAdmin),
		})
	})
	return r
}

func doAuthed(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthSetsAdminFlag(t *testing.T) {
	config.AppConfig.JWTSecret = testSecret
	r := authRouter(&fakeAuth{adminID: 42})

	w := doAuthed(r, signToken(t, "42"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"external_id":42`)
	assert.Contains(t, w.Body.String(), `"is_admin":true`)
}

func TestJWTAuthRegularUserIsNotAdmin(t *testing.T) {
	config.AppConfig.JWTSecret = testSecret
	r := authRouter(&fakeAuth{adminID: 42})

	w := doAuthed(r, signToken(t, "7"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_admin":false`)
}

func TestJWTAuthRejectsMissingOrInvalidToken(t *testing.T) {
	config.AppConfig.JWTSecret = testSecret
	r := authRouter(&fakeAuth{})

	assert.Equal(t, http.StatusUnauthorized, doAuthed(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doAuthed(r, "not-a-token").Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"})
	signedWrong, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doAuthed(r, signedWrong).Code)
}

func TestJWTAuthRejectsNonNumericSubject(t *testing.T) {
	config.AppConfig.JWTSecret = testSecret
	r := authRouter(&fakeAuth{})
	assert.Equal(t, http.StatusUnauthorized, doAuthed(r, signToken(t, "alice")).Code)
}
