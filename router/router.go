package router

import (
	"CourseForge/config"
	"CourseForge/internal/handler"
	"CourseForge/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter(cfg *config.Config, files *handler.FileHandler, courses *handler.CourseHandler, auth *handler.AuthHandler) *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/login", auth.Login)

		authed := api.Group("")
		authed.Use(utils.AuthMiddleware(cfg.JWTSecret))

		file := authed.Group("/file")
		{
			file.POST("/upload", files.Upload)
			file.DELETE("", files.Delete)
			file.GET("/metadata", files.GetMetadata)
			file.PATCH("/rename", files.Rename)
			file.POST("/replace", files.Replace)
		}

		course := authed.Group("/course")
		{
			course.GET("", courses.List)
			course.GET("/:courseID", courses.Get)
		}

		staff := authed.Group("")
		staff.Use(utils.StaffOnly())
		{
			staff.GET("/file/list-all", files.ListAll)
			staff.PATCH("/file/visibility", files.SetVisibility)
			staff.POST("/file/publish-due", files.PublishDue)
			staff.POST("/course", courses.Create)
			staff.DELETE("/course/:courseID", courses.Delete)
		}
	}
	return r
}
