package services

import (
	"context"
	"testing"

	"iams/internal/models"
	svcerr "iams/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCreate(t *testing.T) {
	_, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role, err := svc.Create(ctx, "ops_admin", "运维管理员", "负责运维")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, role.Status)

	// 代码重复
	_, err = svc.Create(ctx, "ops_admin", "另一个", "")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeConflict))

	// 非法代码
	_, err = svc.Create(ctx, "a", "太短", "")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeInvalidParam))
	_, err = svc.Create(ctx, "has space", "带空格", "")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeInvalidParam))

	// 非法名称
	_, err = svc.Create(ctx, "valid_code", "x", "")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeInvalidParam))
}

func TestRoleUpdateAndDelete(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role := createRole(t, db, "ops", "运维")

	updated, err := svc.Update(ctx, role.ID, "运维组", "改名", models.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, "运维组", updated.Name)
	assert.Equal(t, models.StatusInactive, updated.Status)

	require.NoError(t, svc.Delete(ctx, role.ID))
	_, err = svc.GetByID(ctx, role.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))

	err = svc.Delete(ctx, role.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))
}

func TestAssignRoleToUser(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	user := createUser(t, db, "alice")
	role := createRole(t, db, "ops", "运维")

	require.NoError(t, svc.AssignRoleToUser(ctx, user.ID, role.ID))

	// 重复分配
	err := svc.AssignRoleToUser(ctx, user.ID, role.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeConflict))

	// 目标用户不存在
	err = svc.AssignRoleToUser(ctx, 999, role.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))

	// 禁用用户视同不存在
	disabled := createUser(t, db, "frozen")
	require.NoError(t, db.Model(disabled).Update("status", models.StatusInactive).Error)
	err = svc.AssignRoleToUser(ctx, disabled.ID, role.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))
}

func TestRemoveRoleFromUser(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	user := createUser(t, db, "alice")
	role := createRole(t, db, "ops", "运维")
	require.NoError(t, svc.AssignRoleToUser(ctx, user.ID, role.ID))

	require.NoError(t, svc.RemoveRoleFromUser(ctx, user.ID, role.ID))

	// 关系已不存在视为成功
	require.NoError(t, svc.RemoveRoleFromUser(ctx, user.ID, role.ID))

	var count int64
	db.Model(&models.UserRole{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAssignRoleToUsersBatch(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role := createRole(t, db, "ops", "运维")
	u1 := createUser(t, db, "u1")
	u2 := createUser(t, db, "u2")
	u3 := createUser(t, db, "u3")

	// u1已持有该角色，u2已禁用
	require.NoError(t, db.Create(&models.UserRole{UserID: u1.ID, RoleID: role.ID}).Error)
	require.NoError(t, db.Model(u2).Update("status", models.StatusInactive).Error)

	// 批量：[已持有, 已禁用, 不存在, 正常]
	missingID := u3.ID + 100
	result, err := svc.AssignRoleToUsers(ctx, role.ID, []uint{u1.ID, u2.ID, missingID, u3.ID})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 3, result.SkippedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, []uint{u1.ID}, result.DuplicatedIDs)
	assert.Equal(t, []uint{u2.ID, missingID}, result.InvalidIDs)
	assert.Empty(t, result.ErrorMessages)

	// 实际只多出u3一条关系
	var count int64
	db.Model(&models.UserRole{}).Where("role_id = ?", role.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestAssignRoleToUsersUnusableRole(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	user := createUser(t, db, "alice")

	// 角色级校验失败时整批拒绝
	_, err := svc.AssignRoleToUsers(ctx, 999, []uint{user.ID})
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))
}

func TestRemoveRoleFromUsersBatch(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role := createRole(t, db, "ops", "运维")
	u1 := createUser(t, db, "u1")
	u2 := createUser(t, db, "u2")
	require.NoError(t, db.Create(&models.UserRole{UserID: u1.ID, RoleID: role.ID}).Error)

	result, err := svc.RemoveRoleFromUsers(ctx, role.ID, []uint{u1.ID, u2.ID})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []uint{u2.ID}, result.DuplicatedIDs)

	var count int64
	db.Model(&models.UserRole{}).Where("role_id = ?", role.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAddPermissionsToRoleBatch(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role := createRole(t, db, "ops", "运维")
	p1 := createAction(t, db, "user:create", "创建用户")
	p2 := createAction(t, db, "user:delete", "删除用户")
	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: p1.ID}).Error)

	missingID := p2.ID + 100
	result, err := svc.AddPermissionsToRole(ctx, role.ID, []uint{p1.ID, p2.ID, missingID})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []uint{p1.ID}, result.DuplicatedIDs)
	assert.Equal(t, []uint{missingID}, result.InvalidIDs)

	perms, err := svc.GetRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 2)
}

func TestRemovePermissionsFromRoleBatch(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role := createRole(t, db, "ops", "运维")
	p1 := createAction(t, db, "user:create", "创建用户")
	p2 := createAction(t, db, "user:delete", "删除用户")
	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: p1.ID}).Error)

	result, err := svc.RemovePermissionsFromRole(ctx, role.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []uint{p2.ID}, result.DuplicatedIDs)

	var count int64
	db.Model(&models.RolePermission{}).Where("role_id = ?", role.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBatchEmptyInput(t *testing.T) {
	db, _, svc, _ := newTestServices(t)
	ctx := context.Background()

	role := createRole(t, db, "ops", "运维")

	result, err := svc.AssignRoleToUsers(ctx, role.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalCount)
	assert.NotNil(t, result.InvalidIDs)
	assert.NotNil(t, result.DuplicatedIDs)
}

func TestRoleAssignEvictsVisibleCache(t *testing.T) {
	db := newTestDB(t)
	store, _ := newTestCacheStore(t)
	menuCache := NewMenuCacheService(store)
	facade := NewMenuCacheFacade(menuCache, db)
	svc := NewRoleService(db, facade)
	ctx := context.Background()

	user := createUser(t, db, "alice")
	role := createRole(t, db, "ops", "运维")

	seedVisibleTree(t, menuCache, user.ID)
	require.NoError(t, svc.AssignRoleToUser(ctx, user.ID, role.ID))

	_, found := menuCache.GetVisibleTree(ctx, user.ID, false, false)
	assert.False(t, found)
}
