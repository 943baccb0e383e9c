package services

import (
	"context"
	"testing"

	"iams/internal/models"
	svcerr "iams/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "Secret@123", "alice@example.com", "Alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.NotEqual(t, "Secret@123", user.PasswordHash)
	assert.True(t, user.CheckPassword("Secret@123"))

	// 用户名重复
	_, err = svc.Create(ctx, "alice", "Other@123", "", "")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeConflict))

	// 缺参数
	_, err = svc.Create(ctx, "", "Secret@123", "", "")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeInvalidParam))
}

func TestUserVerifyCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "Secret@123", "", "Alice")
	require.NoError(t, err)

	user, err := svc.VerifyCredentials(ctx, "alice", "Secret@123")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	// 错误密码与未知用户返回同一个错误
	_, err = svc.VerifyCredentials(ctx, "alice", "wrong")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeUnauthorized))
	assert.EqualError(t, err, "用户名或密码错误")
	_, err = svc.VerifyCredentials(ctx, "nobody", "Secret@123")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeUnauthorized))
	assert.EqualError(t, err, "用户名或密码错误")

	// 禁用用户拒绝登录
	require.NoError(t, svc.SetStatus(ctx, user.ID, models.StatusInactive))
	_, err = svc.VerifyCredentials(ctx, "alice", "Secret@123")
	assert.True(t, svcerr.IsCode(err, svcerr.CodeUnauthorized))
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user := createUser(t, db, "alice")
	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err := svc.GetByID(ctx, user.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))

	err = svc.Delete(ctx, user.ID)
	assert.True(t, svcerr.IsCode(err, svcerr.CodeDataNotFound))
}

func TestUserGetPermissionsAndHasPermission(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user := createUser(t, db, "alice")
	r1 := createRole(t, db, "r1", "角色一")
	r2 := createRole(t, db, "r2", "角色二")
	p1 := createAction(t, db, "user:create", "创建用户")
	p2 := createAction(t, db, "user:delete", "删除用户")

	// 两个角色都授了p1，聚合后去重
	grantMenuToUser(t, db, user.ID, r1.ID, p1.ID)
	grantMenuToUser(t, db, user.ID, r2.ID, p1.ID, p2.ID)

	perms, err := svc.GetUserPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	has, err := svc.HasPermission(ctx, user.ID, "user:create")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = svc.HasPermission(ctx, user.ID, "user:export")
	require.NoError(t, err)
	assert.False(t, has)

	// 禁用角色后其授权不再计入
	require.NoError(t, db.Model(r2).Update("status", models.StatusInactive).Error)
	has, err = svc.HasPermission(ctx, user.ID, "user:delete")
	require.NoError(t, err)
	assert.False(t, has)
}
