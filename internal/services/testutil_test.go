package services

import (
	"testing"

	"iams/internal/models"
	"iams/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 创建内存数据库并迁移全部模型
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.UserRole{},
		&models.RolePermission{},
		&models.OperationLog{},
		&models.SystemConfig{},
	)
	require.NoError(t, err)
	return db
}

// newTestCacheStore 创建miniredis支撑的缓存存储
func newTestCacheStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewStore(client, "iams:test"), mr
}

// newTestServices 组装一套跑在内存数据库和miniredis上的服务
func newTestServices(t *testing.T) (*gorm.DB, *PermissionService, *RoleService, *MenuCacheService) {
	t.Helper()

	db := newTestDB(t)
	store, _ := newTestCacheStore(t)
	menuCache := NewMenuCacheService(store)
	facade := NewMenuCacheFacade(menuCache, db)
	return db, NewPermissionService(db, menuCache, facade), NewRoleService(db, facade), menuCache
}

// createMenu 插入菜单节点行
func createMenu(t *testing.T, db *gorm.DB, code, name string, parentID uint, sortOrder int) *models.Permission {
	t.Helper()

	p := &models.Permission{
		Code:      code,
		Name:      name,
		Type:      models.PermissionTypeMenu,
		ParentID:  parentID,
		SortOrder: sortOrder,
		Status:    models.StatusActive,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// createAction 插入操作权限点行
func createAction(t *testing.T, db *gorm.DB, code, name string) *models.Permission {
	t.Helper()

	p := &models.Permission{
		Code:   code,
		Name:   name,
		Type:   models.PermissionTypeAction,
		Status: models.StatusActive,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// createUser 插入用户行
func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u := &models.User{
		Username: username,
		Status:   models.StatusActive,
	}
	require.NoError(t, u.SetPassword("Test@123"))
	require.NoError(t, db.Create(u).Error)
	return u
}

// createRole 插入角色行
func createRole(t *testing.T, db *gorm.DB, code, name string) *models.Role {
	t.Helper()

	r := &models.Role{
		Code:   code,
		Name:   name,
		Status: models.StatusActive,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

// grantMenuToUser 建立 用户→角色→菜单 的授权链
func grantMenuToUser(t *testing.T, db *gorm.DB, userID, roleID uint, permissionIDs ...uint) {
	t.Helper()

	require.NoError(t, db.FirstOrCreate(&models.UserRole{}, models.UserRole{UserID: userID, RoleID: roleID}).Error)
	for _, pid := range permissionIDs {
		require.NoError(t, db.FirstOrCreate(&models.RolePermission{}, models.RolePermission{RoleID: roleID, PermissionID: pid}).Error)
	}
}
