package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleJobsHistory(c *gin.Context) {
	writeData(c, s.scheduler.History().List())
}

// handleRunNow 同步執行一次管線；記帳失敗仍回傳 200 並附上錯誤。
// 用戶端中斷不取消執行，避免送出後記帳被中止；逾時由 scheduler 控制。
func (s *Server) handleRunNow(c *gin.Context) {
	res, err := s.scheduler.RunNow(context.WithoutCancel(c.Request.Context()))
	body := gin.H{"success": true, "data": res}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}
