package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/logger"
)

type stubAuthenticator struct {
	token   string
	session *models.Session
	err     error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*models.Session, *models.JWTClaims, error) {
	s.token = token
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.session, &models.JWTClaims{SessionID: s.session.ID, Username: s.session.Username}, nil
}

func runJWT(t *testing.T, auth *stubAuthenticator, header string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reviews/pending", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	JWT(auth)(c)
	return w, c
}

func TestJWTAttachesSession(t *testing.T) {
	auth := &stubAuthenticator{session: &models.Session{ID: "s1", Username: "analyst"}}
	w, c := runJWT(t, auth, "Bearer tok")

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", auth.token)
	require.NotNil(t, SessionFromContext(c))
	assert.Equal(t, "s1", SessionFromContext(c).ID)
	assert.Equal(t, "analyst", c.GetString(logger.ContextActorKey))
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "Token abc", "Bearer "} {
		auth := &stubAuthenticator{session: &models.Session{ID: "s1"}}
		w, c := runJWT(t, auth, header)
		assert.True(t, c.IsAborted(), header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Empty(t, auth.token)
	}
}

func TestJWTPropagatesSessionExpiry(t *testing.T) {
	auth := &stubAuthenticator{err: appErrors.ErrSessionExpired}
	w, c := runJWT(t, auth, "Bearer tok")

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SESSION_EXPIRED", body.Error.Code)
}

type recordedRequest struct {
	method, path string
	status       int
}

type requestRecorder struct {
	requests []recordedRequest
}

func (r *requestRecorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.requests = append(r.requests, recordedRequest{method, path, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &requestRecorder{}
	router := gin.New()
	router.Use(Metrics(recorder))
	router.GET("/reviews/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reviews/rev-1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/reviews/:id", http.StatusNoContent},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}, recorder.requests)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
