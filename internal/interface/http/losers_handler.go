package httpapi

import (
	"errors"
	"net/http"

	"losers-alert/internal/application/watchlist"
	"losers-alert/internal/domain/market"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleView(c *gin.Context) {
	writeData(c, s.watchlist.View(c.Request.Context(), s.today()))
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.watchlist.Refresher().Refresh(c.Request.Context())
	writeData(c, s.watchlist.View(c.Request.Context(), s.today()))
}

func (s *Server) handleTogglePin(c *gin.Context) {
	symbol := market.NormalizeSymbol(c.Param("symbol"))
	pinned, err := s.ui.TogglePin(c.Request.Context(), symbol)
	if err != nil {
		s.writeStateError(c, err)
		return
	}
	writeData(c, gin.H{"symbol": symbol, "pinned": pinned})
}

func (s *Server) handleDismiss(c *gin.Context) {
	symbol := market.NormalizeSymbol(c.Param("symbol"))
	if err := s.ui.Dismiss(c.Request.Context(), symbol, s.today()); err != nil {
		s.writeStateError(c, err)
		return
	}
	writeData(c, gin.H{"symbol": symbol, "dismissed": true})
}

func (s *Server) handleUndismissAll(c *gin.Context) {
	if err := s.ui.UndismissAll(c.Request.Context(), s.today()); err != nil {
		s.writeStateError(c, err)
		return
	}
	writeData(c, gin.H{"dismissed": []string{}})
}

func (s *Server) writeStateError(c *gin.Context, err error) {
	if errors.Is(err, watchlist.ErrInvalidSymbol) {
		writeError(c, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, errCodeInternal, err.Error())
}
