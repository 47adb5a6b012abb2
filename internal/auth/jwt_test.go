package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(now time.Time) *Signer {
	s := NewSigner("messmate-test", "0123456789abcdef0123", time.Hour, 24*time.Hour)
	s.Now = func() time.Time { return now }
	return s
}

func TestSigner_IssueAndParse(t *testing.T) {
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(now)

	pair, err := s.Issue(42, RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), pair.AccessExp)

	claims, err := s.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.False(t, claims.IsAdmin())
}

func TestSigner_Expired(t *testing.T) {
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(now)
	pair, err := s.Issue(1, RoleAdmin)
	require.NoError(t, err)

	s.Now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = s.Parse(pair.AccessToken)
	assert.Error(t, err)

	_, err = s.Parse(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestSigner_RejectsForeignIssuerAndKey(t *testing.T) {
	now := time.Now()
	s := newTestSigner(now)

	other := newTestSigner(now)
	other.Issuer = "someone-else"
	pair, err := other.Issue(7, RoleStudent)
	require.NoError(t, err)
	_, err = s.Parse(pair.AccessToken)
	assert.Error(t, err)

	wrongKey := newTestSigner(now)
	wrongKey.Key = []byte("another-key-0123456789")
	pair, err = wrongKey.Issue(7, RoleStudent)
	require.NoError(t, err)
	_, err = s.Parse(pair.AccessToken)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newTestSigner(time.Now())

	r := gin.New()
	r.GET("/me", Bearer(s), func(c *gin.Context) {
		claims, _ := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID})
	})
	r.GET("/admin", Bearer(s), RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	student, err := s.Issue(3, RoleStudent)
	require.NoError(t, err)
	admin, err := s.Issue(1, RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"student ok", "/me", "Bearer " + student.AccessToken, http.StatusOK},
		{"student on admin route", "/admin", "Bearer " + student.AccessToken, http.StatusForbidden},
		{"admin on admin route", "/admin", "bearer " + admin.AccessToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
