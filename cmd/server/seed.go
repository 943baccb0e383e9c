package main

import (
	"errors"
	"fmt"

	"iams/internal/database"
	"iams/internal/models"
	"iams/pkg/logger"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 初始化菜单目录
	if err := initializeMenus(db); err != nil {
		return fmt.Errorf("初始化菜单失败: %v", err)
	}

	// 2. 初始化操作权限点
	if err := initializeActions(db); err != nil {
		return fmt.Errorf("初始化权限点失败: %v", err)
	}

	// 3. 创建管理员角色
	if err := createAdminRole(db); err != nil {
		return fmt.Errorf("创建管理员角色失败: %v", err)
	}

	// 4. 创建默认管理员用户
	if err := createDefaultAdmin(db); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// seedMenu 菜单种子定义
type seedMenu struct {
	Code      string
	Name      string
	Path      string
	SortOrder int
	Children  []seedMenu
}

// initializeMenus 初始化菜单目录
func initializeMenus(db *gorm.DB) error {
	defaultMenus := []seedMenu{
		{
			Code: "menu:system", Name: "系统管理", Path: "/system", SortOrder: 1,
			Children: []seedMenu{
				{Code: "menu:system:user", Name: "用户管理", Path: "/system/users", SortOrder: 1},
				{Code: "menu:system:role", Name: "角色管理", Path: "/system/roles", SortOrder: 2},
				{Code: "menu:system:menu", Name: "菜单管理", Path: "/system/menus", SortOrder: 3},
				{Code: "menu:system:config", Name: "参数配置", Path: "/system/configs", SortOrder: 4},
			},
		},
		{
			Code: "menu:monitor", Name: "系统监控", Path: "/monitor", SortOrder: 2,
			Children: []seedMenu{
				{Code: "menu:monitor:oplog", Name: "操作日志", Path: "/monitor/operation-logs", SortOrder: 1},
			},
		},
	}

	// 逐层创建，记录父子关系
	type frame struct {
		menu     seedMenu
		parentID uint
	}
	stack := make([]frame, 0, len(defaultMenus))
	for i := len(defaultMenus) - 1; i >= 0; i-- {
		stack = append(stack, frame{menu: defaultMenus[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var existing models.Permission
		err := db.Where("code = ?", top.menu.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = models.Permission{
				Code:      top.menu.Code,
				Name:      top.menu.Name,
				Type:      models.PermissionTypeMenu,
				Path:      top.menu.Path,
				ParentID:  top.parentID,
				SortOrder: top.menu.SortOrder,
				Status:    models.StatusActive,
			}
			if err := db.Create(&existing).Error; err != nil {
				return fmt.Errorf("创建菜单 %s 失败: %v", top.menu.Code, err)
			}
		} else if err != nil {
			return err
		}

		for i := len(top.menu.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{menu: top.menu.Children[i], parentID: existing.ID})
		}
	}

	logger.GetLogger().Info("菜单初始化完成")
	return nil
}

// initializeActions 初始化操作权限点
func initializeActions(db *gorm.DB) error {
	defaultActions := []models.Permission{
		// 用户管理权限
		{Code: "user:create", Name: "创建用户"},
		{Code: "user:read", Name: "查看用户"},
		{Code: "user:update", Name: "更新用户"},
		{Code: "user:delete", Name: "删除用户"},
		{Code: "user:list", Name: "用户列表"},
		{Code: "user:assign", Name: "分配用户角色"},

		// 角色管理权限
		{Code: "role:create", Name: "创建角色"},
		{Code: "role:read", Name: "查看角色"},
		{Code: "role:update", Name: "更新角色"},
		{Code: "role:delete", Name: "删除角色"},
		{Code: "role:list", Name: "角色列表"},
		{Code: "role:bind", Name: "绑定角色权限"},
		{Code: "role:assign", Name: "批量分配角色"},

		// 菜单管理权限
		{Code: "menu:create", Name: "创建菜单"},
		{Code: "menu:update", Name: "更新菜单"},
		{Code: "menu:delete", Name: "删除菜单"},
		{Code: "menu:list", Name: "菜单列表"},

		// 权限点管理权限
		{Code: "permission:create", Name: "创建权限点"},
		{Code: "permission:read", Name: "查看权限点"},
		{Code: "permission:list", Name: "权限点列表"},

		// 系统配置权限
		{Code: "config:read", Name: "查看配置"},
		{Code: "config:update", Name: "更新配置"},
		{Code: "config:list", Name: "配置列表"},

		// 操作日志权限
		{Code: "log:list", Name: "操作日志列表"},
	}

	for _, action := range defaultActions {
		var count int64
		db.Model(&models.Permission{}).Where("code = ?", action.Code).Count(&count)
		if count == 0 {
			action.Type = models.PermissionTypeAction
			action.Status = models.StatusActive
			if err := db.Create(&action).Error; err != nil {
				return fmt.Errorf("创建权限点 %s 失败: %v", action.Code, err)
			}
		}
	}

	logger.GetLogger().Info("权限点初始化完成")
	return nil
}

// createAdminRole 创建管理员角色
func createAdminRole(db *gorm.DB) error {
	var count int64
	db.Model(&models.Role{}).Where("code = ?", "admin").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("管理员角色已存在，跳过创建")
		return nil
	}

	role := &models.Role{
		Name:        "系统管理员",
		Code:        "admin",
		Description: "系统最高权限管理员",
		Status:      models.StatusActive,
	}

	if err := db.Create(role).Error; err != nil {
		return err
	}

	// 分配所有权限
	var permissions []models.Permission
	if err := db.Where("deleted = ?", false).Find(&permissions).Error; err != nil {
		return err
	}
	for _, perm := range permissions {
		rp := models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}
		if err := db.Create(&rp).Error; err != nil {
			return fmt.Errorf("绑定权限 %s 失败: %v", perm.Code, err)
		}
	}

	logger.GetLogger().Info("管理员角色创建成功")
	return nil
}

// createDefaultAdmin 创建默认管理员用户
func createDefaultAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认管理员已存在，跳过创建")
		return nil
	}

	user := &models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Name:     "系统管理员",
		Status:   models.StatusActive,
	}
	if err := user.SetPassword("Admin@123"); err != nil {
		return err
	}

	if err := db.Create(user).Error; err != nil {
		return err
	}

	// 绑定管理员角色
	var role models.Role
	if err := db.Where("code = ?", "admin").First(&role).Error; err != nil {
		return fmt.Errorf("获取管理员角色失败: %v", err)
	}
	ur := models.UserRole{UserID: user.ID, RoleID: role.ID}
	if err := db.Create(&ur).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("默认管理员创建成功（用户名: admin）")
	return nil
}
