package services

import (
	"context"
	"errors"
	"time"

	"iams/internal/models"
	svcerr "iams/pkg/errors"
	"iams/pkg/pagination"

	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct {
	db *gorm.DB
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建用户
func (s *UserService) Create(ctx context.Context, username, password, email, name string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, svcerr.NewInvalidParam("用户名或密码不能为空")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND deleted = ?", username, false).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, svcerr.NewAlreadyExists("用户名已存在")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Name:     name,
		Status:   models.StatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("deleted = ?", false).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("用户不存在")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND deleted = ?", username, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("用户不存在")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetWithPage 分页获取用户列表
func (s *UserService) GetWithPage(ctx context.Context, status string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.WithContext(ctx).Model(&models.User{}).Where("deleted = ?", false)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = pagination.Normalize(page, pageSize)
	err := query.Offset(pagination.Offset(page, pageSize)).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SetStatus 设置用户状态
func (s *UserService) SetStatus(ctx context.Context, id uint, status string) error {
	if status != models.StatusActive && status != models.StatusInactive {
		return svcerr.NewInvalidParam("状态只能是active或inactive")
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return svcerr.NewNotFound("用户不存在")
	}
	return nil
}

// Delete 删除用户（软删除）
func (s *UserService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return svcerr.NewNotFound("用户不存在")
	}
	return nil
}

// ========== 认证相关 ==========

// VerifyCredentials 校验用户名密码，通过后更新最近登录时间
func (s *UserService) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, svcerr.New(svcerr.CodeUnauthorized, "用户名或密码错误")
	}
	if !user.CheckPassword(password) {
		return nil, svcerr.New(svcerr.CodeUnauthorized, "用户名或密码错误")
	}
	if user.Status != models.StatusActive {
		return nil, svcerr.New(svcerr.CodeUnauthorized, "用户已被禁用")
	}

	now := time.Now()
	user.LastLoginAt = &now
	// 登录时间更新失败不影响登录
	_ = s.db.WithContext(ctx).Model(user).Update("last_login_at", now).Error

	return user, nil
}

// IsActive 用户是否可用
func (s *UserService) IsActive(user *models.User) bool {
	return user.IsUsable()
}

// ========== 角色与权限查询 ==========

// GetUserRoles 获取用户的角色列表（未删除且启用）
func (s *UserService) GetUserRoles(ctx context.Context, userID uint) ([]*models.Role, error) {
	var roles []*models.Role
	err := s.db.WithContext(ctx).Model(&models.Role{}).
		Joins("JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ? AND roles.deleted = ?", userID, false).
		Find(&roles).Error
	return roles, err
}

// GetUserPermissions 获取用户经角色聚合的权限列表（去重）
func (s *UserService) GetUserPermissions(ctx context.Context, userID uint) ([]*models.Permission, error) {
	var permissions []*models.Permission
	err := s.db.WithContext(ctx).Model(&models.Permission{}).
		Distinct("permissions.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("JOIN roles r ON r.id = rp.role_id AND r.deleted = ? AND r.status = ?", false, models.StatusActive).
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ? AND permissions.deleted = ? AND permissions.status = ?",
			userID, false, models.StatusActive).
		Find(&permissions).Error
	return permissions, err
}

// HasPermission 判断用户是否拥有指定编码的权限
func (s *UserService) HasPermission(ctx context.Context, userID uint, permissionCode string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Permission{}).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("JOIN roles r ON r.id = rp.role_id AND r.deleted = ? AND r.status = ?", false, models.StatusActive).
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ? AND permissions.code = ? AND permissions.deleted = ? AND permissions.status = ?",
			userID, permissionCode, false, models.StatusActive).
		Count(&count).Error
	return count > 0, err
}
