package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/apperr"
)

func TestError_StatusByKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.New(apperr.Validation, "invalid user id"), http.StatusBadRequest, ""},
		{"conflict", apperr.New(apperr.Conflict, "username taken"), http.StatusBadRequest, ""},
		{"not found", fmt.Errorf("load: %w", apperr.New(apperr.NotFound, "user")), http.StatusNotFound, ""},
		{"cache down", apperr.Wrap(apperr.CacheUnavailable, "hgetall", errors.New("dial tcp")), http.StatusInternalServerError, "internal error"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, body.Message)
			} else {
				assert.Equal(t, tc.err.Error(), body.Message)
			}
		})
	}
}
