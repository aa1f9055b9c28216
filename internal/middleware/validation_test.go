package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type crawlForm struct {
	URL string `json:"url" validate:"required,http_url"`
}

func bindRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/actions/crawls", func(c *gin.Context) {
		var form crawlForm
		if !BindJSON(c, &form) {
			return
		}
		c.JSON(http.StatusAccepted, form)
	})
	return r
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"valid", `{"url":"https://example.com"}`, http.StatusAccepted, ""},
		{"missing", `{}`, http.StatusBadRequest, "is required"},
		{"not http", `{"url":"ftp://example.com"}`, http.StatusBadRequest, "must be an http or https URL"},
		{"bad json", `{"url":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/actions/crawls", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			bindRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.want != "" {
				var resp struct {
					Details map[string]string `json:"details"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.want, resp.Details["url"])
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "https://example.com", SanitizeString("  https://exa\x00mple.com\x07 "))
	assert.Equal(t, "a\tb", SanitizeString("a\tb"))
}
