package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Students      *StudentHandler
	Courses       *CourseHandler
	Registrations *RegistrationHandler
	Stats         *StatsHandler
	Admin         *AdminHandler
}

// RegisterRoutes mounts the API under the given prefix. Every request context
// carries a deadline so a stalled store operation surfaces as a timeout
// instead of hanging the client.
func RegisterRoutes(r *gin.Engine, prefix string, opTimeout time.Duration, h Handlers) {
	api := r.Group(prefix)
	api.Use(withTimeout(opTimeout))

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/search", h.Students.Search)
	students.GET("/major/:major", h.Students.ByMajor)
	students.GET("/student-id/:code", h.Students.GetByCode)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", h.Courses.Create)
	courses.GET("/search", h.Courses.Search)
	courses.GET("/available", h.Courses.Available)
	courses.GET("/:id", h.Courses.Get)
	courses.PUT("/:id", h.Courses.Update)
	courses.DELETE("/:id", h.Courses.Delete)

	registrations := api.Group("/registrations")
	registrations.GET("", h.Registrations.List)
	registrations.POST("", h.Registrations.Create)
	registrations.GET("/check/:studentId/:courseId", h.Registrations.Check)
	registrations.GET("/student/:studentId", h.Registrations.ByStudent)
	registrations.GET("/course/:courseId", h.Registrations.ByCourse)
	registrations.GET("/:id", h.Registrations.Get)
	registrations.PUT("/:id", h.Registrations.Update)
	registrations.DELETE("/:id", h.Registrations.Delete)

	api.GET("/stats", h.Stats.Snapshot)

	admin := api.Group("/admin")
	admin.POST("/seed", h.Admin.Seed)
	admin.POST("/clear", h.Admin.Clear)
	admin.GET("/export", h.Admin.Export)
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
