package response

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

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, nil) })

	cases := []struct {
		name   string
		header string
		kept   bool
	}{
		{"client id kept", "page-42.retry_1", true},
		{"missing", "", false},
		{"control characters", "abc\x00def", false},
		{"too long", strings.Repeat("a", 65), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("X-Request-ID", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			require.NotEmpty(t, got)
			if tc.kept {
				assert.Equal(t, tc.header, got)
			} else {
				assert.NotEqual(t, tc.header, got)
			}

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, got, body.Metadata.RequestID)
		})
	}
}

func TestFailWithFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FailWithFields(c, http.StatusBadRequest, ErrValidation, map[string]string{"index": "required"})

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrValidation, body.Error.Code)
	assert.Equal(t, GetMessage(ErrValidation), body.Error.Message)
	assert.Equal(t, "required", body.Error.Fields["index"])
	assert.NotEmpty(t, body.Metadata.RequestID, "falls back to a generated id")
}

func TestGetMessage_Unknown(t *testing.T) {
	assert.NotEmpty(t, GetMessage(ErrCode("SOMETHING_ELSE")))
}

func TestMetadata_SessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/sessions/:id", func(c *gin.Context) { Success(c, http.StatusOK, nil) })

	sid := "7d7a4f6e-2f8a-4a39-9a51-0f3b1d1c2e55"
	cases := []struct {
		name string
		path string
		want string
	}{
		{"session route", "/sessions/" + sid, sid},
		{"malformed id omitted", "/sessions/not-a-uuid", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.want, body.Metadata.SessionID)
		})
	}
}
