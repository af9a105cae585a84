package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/openmakers/badgegate/internal/auth"
	"github.com/openmakers/badgegate/internal/handlers"
	"github.com/openmakers/badgegate/internal/middleware"
)

func registerAdminRoutes(admin *gin.RouterGroup, deps Dependencies) error {
	adminHandler, err := handlers.NewAdminHandler(handlers.AdminDeps{
		AccessLogs: deps.AccessLogs,
		Fallback:   deps.Fallback,
		Members:    deps.Members,
		Status:     deps.Status,
		Links:      deps.Links,
	})
	if err != nil {
		return err
	}
	monitoringHandler := handlers.NewMonitoringHandler(deps.Reporter, deps.Health)

	admin.GET("/access-logs", middleware.RequirePermission(iauth.PermissionViewAccessLogs), adminHandler.ListAccessLogs)

	fallback := admin.Group("/fallback")
	{
		fallback.POST("/invalidate", middleware.RequirePermission(iauth.PermissionManageFallback), adminHandler.InvalidateFallback)
		fallback.POST("/warm", middleware.RequirePermission(iauth.PermissionManageFallback), adminHandler.WarmFallback)
	}

	admin.GET("/members/:uuid/status", middleware.RequirePermission(iauth.PermissionViewMembers), adminHandler.MemberStatus)
	admin.GET("/monitoring/summary", middleware.RequirePermission(iauth.PermissionViewMonitoring), monitoringHandler.Summary)
	return nil
}
