package router

import (
	"time"

	"iams/internal/database"
	"iams/internal/handlers"
	"iams/internal/middleware"
	"iams/internal/services"
	"iams/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	db := database.GetDB()
	store := database.GetCacheStore()

	// 服务装配
	menuCacheService := services.NewMenuCacheService(store)
	cacheFacade := services.NewMenuCacheFacade(menuCacheService, db)
	userService := services.NewUserService(db)
	roleService := services.NewRoleService(db, cacheFacade)
	permissionService := services.NewPermissionService(db, menuCacheService, cacheFacade)
	opLogService := services.NewOperationLogService(db)
	configService := services.NewSystemConfigService(db, store)

	auth := middleware.NewAuthMiddleware(userService)
	opLog := middleware.NewOperationLogMiddleware(opLogService)

	// API路由组
	api := router.Group("/api/v1")
	api.Use(opLog.Record())
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// JWT认证路由（无需认证）
		authHandler := handlers.NewAuthHandler(userService)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login) // 用户登录

			// 获取当前用户信息
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 用户路由
		userHandler := handlers.NewUserHandler(userService, roleService)
		users := api.Group("/users")
		{
			// 基础CRUD
			users.POST("", auth.RequireLogin(), auth.RequirePermission("user:create"), userHandler.Create)
			users.GET("", auth.RequireLogin(), auth.RequirePermission("user:list"), userHandler.GetAll)
			users.GET("/:id", auth.RequireLogin(), auth.RequirePermission("user:read"), userHandler.GetByID)
			users.PUT("/:id/status", auth.RequireLogin(), auth.RequirePermission("user:update"), userHandler.SetStatus)
			users.DELETE("/:id", auth.RequireLogin(), auth.RequirePermission("user:delete"), userHandler.Delete)

			// 角色与权限查询
			users.GET("/:id/roles", auth.RequireLogin(), auth.RequirePermission("user:read"), userHandler.GetRoles)
			users.GET("/:id/permissions", auth.RequireLogin(), auth.RequirePermission("user:read"), userHandler.GetPermissions)

			// 单个角色分配
			users.POST("/:id/roles/:role_id", auth.RequireLogin(), auth.RequirePermission("user:assign"), userHandler.AddRole)
			users.DELETE("/:id/roles/:role_id", auth.RequireLogin(), auth.RequirePermission("user:assign"), userHandler.RemoveRole)
		}

		// 角色路由
		roleHandler := handlers.NewRoleHandler(roleService)
		roles := api.Group("/roles")
		{
			// 基础CRUD
			roles.POST("", auth.RequireLogin(), auth.RequirePermission("role:create"), roleHandler.Create)
			roles.GET("", auth.RequireLogin(), auth.RequirePermission("role:list"), roleHandler.GetAll)
			roles.GET("/:id", auth.RequireLogin(), auth.RequirePermission("role:read"), roleHandler.GetByID)
			roles.PUT("/:id", auth.RequireLogin(), auth.RequirePermission("role:update"), roleHandler.Update)
			roles.DELETE("/:id", auth.RequireLogin(), auth.RequirePermission("role:delete"), roleHandler.Delete)

			// 角色-权限绑定
			roles.GET("/:id/permissions", auth.RequireLogin(), auth.RequirePermission("role:read"), roleHandler.GetPermissions)
			roles.POST("/:id/permissions/:permission_id", auth.RequireLogin(), auth.RequirePermission("role:bind"), roleHandler.AddPermission)
			roles.DELETE("/:id/permissions/:permission_id", auth.RequireLogin(), auth.RequirePermission("role:bind"), roleHandler.RemovePermission)
			roles.POST("/:id/permissions", auth.RequireLogin(), auth.RequirePermission("role:bind"), roleHandler.AddPermissions)
			roles.DELETE("/:id/permissions", auth.RequireLogin(), auth.RequirePermission("role:bind"), roleHandler.RemovePermissions)

			// 角色-用户批量分配
			roles.GET("/:id/users", auth.RequireLogin(), auth.RequirePermission("role:read"), roleHandler.GetUserIDs)
			roles.POST("/:id/users", auth.RequireLogin(), auth.RequirePermission("role:assign"), roleHandler.AssignUsers)
			roles.DELETE("/:id/users", auth.RequireLogin(), auth.RequirePermission("role:assign"), roleHandler.RemoveUsers)
		}

		// 菜单与权限点路由
		permissionHandler := handlers.NewPermissionHandler(permissionService)
		menus := api.Group("/menus")
		{
			// 全量菜单树与当前用户可见树
			menus.GET("/tree", auth.RequireLogin(), auth.RequirePermission("menu:list"), permissionHandler.GetMenuTree)
			menus.GET("/visible-tree", auth.RequireLogin(), permissionHandler.GetVisibleMenuTree)
			menus.GET("/visible-tree/:id", auth.RequireLogin(), auth.RequirePermission("menu:list"), permissionHandler.GetVisibleMenuTreeForUser)

			// 菜单目录维护
			menus.POST("", auth.RequireLogin(), auth.RequirePermission("menu:create"), permissionHandler.CreateMenu)
			menus.PUT("/:id", auth.RequireLogin(), auth.RequirePermission("menu:update"), permissionHandler.UpdateMenu)
			menus.DELETE("/:id", auth.RequireLogin(), auth.RequirePermission("menu:delete"), permissionHandler.DeleteMenu)
			menus.DELETE("/:id/cascade", auth.RequireLogin(), auth.RequirePermission("menu:delete"), permissionHandler.DeleteMenuCascade)
			menus.PUT("/sort", auth.RequireLogin(), auth.RequirePermission("menu:update"), permissionHandler.BatchUpdateSort)
			menus.PUT("/move", auth.RequireLogin(), auth.RequirePermission("menu:update"), permissionHandler.MoveMenu)
		}

		// 权限点路由
		permissions := api.Group("/permissions")
		{
			permissions.GET("", auth.RequireLogin(), auth.RequirePermission("permission:list"), permissionHandler.GetAll)
			permissions.GET("/:id", auth.RequireLogin(), auth.RequirePermission("permission:read"), permissionHandler.GetByID)
			permissions.POST("", auth.RequireLogin(), auth.RequirePermission("permission:create"), permissionHandler.CreateAction)
		}

		// 系统配置路由
		configHandler := handlers.NewSystemConfigHandler(configService)
		configs := api.Group("/system-configs")
		{
			configs.GET("", auth.RequireLogin(), auth.RequirePermission("config:list"), configHandler.GetAll)
			configs.GET("/:key", auth.RequireLogin(), auth.RequirePermission("config:read"), configHandler.Get)
			configs.PUT("/:key", auth.RequireLogin(), auth.RequirePermission("config:update"), configHandler.Set)
		}

		// 操作日志路由
		opLogHandler := handlers.NewOperationLogHandler(opLogService)
		logs := api.Group("/operation-logs")
		{
			logs.GET("", auth.RequireLogin(), auth.RequirePermission("log:list"), opLogHandler.GetAll)
		}
	}
}

// 健康检查
func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "IAMS",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
