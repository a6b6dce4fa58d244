package httpapi

import (
	"errors"
	"net/http"

	"losers-alert/internal/application/alert"
	alertDomain "losers-alert/internal/domain/alert"

	"github.com/gin-gonic/gin"
)

type thresholdRequest struct {
	Value *float64 `json:"value"`
}

func (s *Server) handleGetThreshold(c *gin.Context) {
	writeData(c, gin.H{"value": s.thresholds.Get(c.Request.Context())})
}

// handleSetThreshold 先套用輸入範圍 [1, 99]，再由 store 限制在 [0, 95]。
func (s *Server) handleSetThreshold(c *gin.Context) {
	var body thresholdRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Value == nil {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, "value is required")
		return
	}
	stored, err := s.thresholds.Set(c.Request.Context(), alertDomain.ClampInput(*body.Value))
	if err != nil {
		if errors.Is(err, alert.ErrInvalidThreshold) {
			writeError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
			return
		}
		writeError(c, http.StatusInternalServerError, errCodeInternal, err.Error())
		return
	}
	writeData(c, gin.H{"value": stored})
}
