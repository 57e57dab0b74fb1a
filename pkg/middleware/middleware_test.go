package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("platform-secret"))
	require.NoError(t, err)
	return tok
}

func TestUnverifiedUserID(t *testing.T) {
	id, err := UnverifiedUserID(signed(t, jwt.MapClaims{"user_id": "stu-42"}))
	require.NoError(t, err)
	assert.Equal(t, "stu-42", id)

	id, err = UnverifiedUserID(signed(t, jwt.MapClaims{"id": float64(17)}))
	require.NoError(t, err)
	assert.Equal(t, "17", id)

	_, err = UnverifiedUserID(signed(t, jwt.MapClaims{"role": "student"}))
	assert.Error(t, err)

	_, err = UnverifiedUserID("not-a-jwt")
	assert.Error(t, err)
}

func TestBearerPassthroughAndTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware(), BearerPassthroughMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"token":    c.GetString(AuthTokenKey),
			"user_id":  c.GetString(UserIDKey),
			"trace_id": c.GetString("trace_id"),
		})
	})

	token := signed(t, jwt.MapClaims{"sub": "abc"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Trace-ID"))
	assert.Contains(t, w.Body.String(), `"user_id":"abc"`)
	assert.Contains(t, w.Body.String(), `"token":"Bearer `+token+`"`)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.Contains(t, w.Body.String(), `"token":""`)
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://prep.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://prep.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://prep.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
