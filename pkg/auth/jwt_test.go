package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestServiceAuth_TokenRoundTrip(t *testing.T) {
	a := NewServiceAuth("test-secret")

	token, err := a.GenerateToken("payment-processor")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := a.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "payment-processor", claims.Subject)
}

func TestServiceAuth_RejectsForeignSecret(t *testing.T) {
	token, err := NewServiceAuth("secret-a").GenerateToken("svc")
	assert.NoError(t, err)

	_, err = NewServiceAuth("secret-b").ParseToken(token)
	assert.Error(t, err)
}

func TestServiceAuth_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a := NewServiceAuth("test-secret")
	router := gin.New()
	router.Use(a.Middleware())
	router.GET("/guarded", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString("service_subject")})
	})

	token, err := a.GenerateToken("payment-processor")
	assert.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{
			name:       "minted token is accepted",
			header:     "Bearer " + token,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic " + token,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not.a.token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
