package router

import (
	"github.com/dosewatch/internal/config"
	"github.com/dosewatch/internal/db"
	"github.com/dosewatch/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("dosewatch_session", store))

	// 上传图片的静态文件服务
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	a := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath)

	api := r.Group("/api")
	{
		api.POST("/create-user", a.CreateUser)
		api.POST("/link-user", a.LinkUser)
		api.GET("/users/:id", a.GetUser)

		api.POST("/add-medicine", a.AddMedicine)
		api.GET("/medicines", a.GetMedicines)
		api.PUT("/medicines/:id", a.UpdateMedicine)
		api.DELETE("/medicines/:id", a.DeleteMedicine)
		api.GET("/medicines/:id/instructions", a.GetInstructions)

		api.POST("/mark-taken", a.MarkTaken)
		api.POST("/mark-missed", a.MarkMissed)

		api.GET("/notifications", a.GetNotifications)

		api.POST("/upload-medicine-image", a.UploadMedicineImage)
		api.POST("/scan-prescription", a.ScanPrescription)

		api.GET("/session/user", a.GetSessionUser)
		api.POST("/session/user", a.SetSessionUser)
		api.DELETE("/session/user", a.ClearSessionUser)
	}

	return r
}
