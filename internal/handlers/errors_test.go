package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jobhackerbot/backend/internal/errs"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	do := func(err error) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, err)
		return w
	}

	t.Run("status mapping", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(errs.Validationf("limit out of range")).Code)
		assert.Equal(t, http.StatusForbidden, do(errs.Forbiddenf("not yours")).Code)
		assert.Equal(t, http.StatusNotFound, do(errs.NotFoundf("message gone")).Code)
		assert.Equal(t, http.StatusInternalServerError, do(errs.Storage(errors.New("boom"))).Code)
	})

	t.Run("storage detail stays out of the response", func(t *testing.T) {
		w := do(errs.Storage(errors.New("pq: connection reset by peer")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
		assert.Contains(t, w.Body.String(), "internal server error")
	})
}
