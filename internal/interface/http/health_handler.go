package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
		"status":    "alive",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	storeStatus := "ok"
	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			storeStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"health":  "ok",
		"store":   storeStatus,
		"driver":  s.storeDriver,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleDiagnostics(c *gin.Context) {
	if s.diagnostics == nil {
		writeError(c, http.StatusNotFound, errCodeNotFound, "diagnostics not configured")
		return
	}
	rep := s.diagnostics.Run(c.Request.Context())
	writeData(c, gin.H{
		"report":   rep,
		"notified": s.ledger.Notified(c.Request.Context(), s.today()),
	})
}
