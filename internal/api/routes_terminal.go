package api

import (
	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/internal/handlers"
)

func registerTerminalRoutes(api *gin.RouterGroup, deps Dependencies) error {
	accessHandler, err := handlers.NewAccessHandler(deps.Evaluator)
	if err != nil {
		return err
	}
	memberHandler, err := handlers.NewMemberHandler(deps.Members, deps.Reporter)
	if err != nil {
		return err
	}
	permissionHandler, err := handlers.NewPermissionHandler(deps.Badges, deps.Reporter)
	if err != nil {
		return err
	}
	exportHandler, err := handlers.NewExportHandler(deps.Fallback, deps.Config.Fallback.Secret)
	if err != nil {
		return err
	}

	// uuid, serial and email identifiers share one route.
	api.GET("/access/:type/:identifier/:permission", accessHandler.Check)
	api.GET("/permissions", permissionHandler.List)

	members := api.Group("/members")
	{
		members.GET("/uuid/:uuid", memberHandler.ByUUID)
		members.GET("/serial/:serial", memberHandler.BySerial)
	}

	api.GET("/fallback/store", exportHandler.Store)
	return nil
}
