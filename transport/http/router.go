package http

import (
	"github.com/gin-gonic/gin"
	"github.com/veritick/veritick/ports"
	"github.com/veritick/veritick/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(
	session *service.GeneratorSession,
	attendance *service.AttendanceService,
	reports *service.ReportService,
	tokenizer ports.OperatorTokenizer,
) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(session, attendance, reports)

	api := router.Group("/api")
	{
		api.GET("/qr", handlers.MintQR)
		api.POST("/qr", handlers.SubmitScan)
		api.GET("/attend-log", handlers.AttendLog)
		api.GET("/server-time", handlers.ServerTime)
		api.GET("/report", handlers.Report)
	}

	// Session control requires an operator token bound to this session.
	control := api.Group("/session")
	control.Use(OperatorAuth(tokenizer, session.ID()))
	{
		control.GET("", handlers.SessionStatus)
		control.POST("/fps", handlers.SetFPS)
	}

	return router
}
