package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"iams/internal/models"
	svcerr "iams/pkg/errors"
	"iams/pkg/pagination"

	"gorm.io/gorm"
)

// BatchOperationResult 批量关系操作的汇总结果，每次调用新建，不落库。
// 批量操作整体不失败，逐项归类：invalid（目标不存在/已禁用）、
// duplicated（关系已处于目标状态）、success（实际写入）
type BatchOperationResult struct {
	TotalCount    int      `json:"total_count"`
	SuccessCount  int      `json:"success_count"`
	SkippedCount  int      `json:"skipped_count"`
	FailedCount   int      `json:"failed_count"`
	InvalidIDs    []uint   `json:"invalid_ids"`
	DuplicatedIDs []uint   `json:"duplicated_ids"`
	ErrorMessages []string `json:"error_messages"`
}

// NewBatchOperationResult 创建空结果（切片初始化为空，JSON输出[]而非null）
func NewBatchOperationResult() *BatchOperationResult {
	return &BatchOperationResult{
		InvalidIDs:    []uint{},
		DuplicatedIDs: []uint{},
		ErrorMessages: []string{},
	}
}

func (r *BatchOperationResult) addInvalid(id uint) {
	r.InvalidIDs = append(r.InvalidIDs, id)
	r.SkippedCount++
}

func (r *BatchOperationResult) addDuplicated(id uint) {
	r.DuplicatedIDs = append(r.DuplicatedIDs, id)
	r.SkippedCount++
}

func (r *BatchOperationResult) addFailed(id uint, err error) {
	r.ErrorMessages = append(r.ErrorMessages, fmt.Sprintf("id %d: %v", id, err))
	r.FailedCount++
}

// RoleService 角色服务：角色CRUD与用户/权限关系维护
type RoleService struct {
	db          *gorm.DB
	cacheFacade *MenuCacheFacade
}

// NewRoleService 创建角色服务
func NewRoleService(db *gorm.DB, cacheFacade *MenuCacheFacade) *RoleService {
	return &RoleService{
		db:          db,
		cacheFacade: cacheFacade,
	}
}

// ========== 基础CRUD方法 ==========

// Create 创建角色
func (s *RoleService) Create(ctx context.Context, code, name, description string) (*models.Role, error) {
	if err := s.validateCreateParams(code, name); err != nil {
		return nil, err
	}

	// 角色代码在未删除角色内唯一
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("code = ? AND deleted = ?", code, false).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, svcerr.NewAlreadyExists("角色代码已存在")
	}

	role := &models.Role{
		Code:        code,
		Name:        name,
		Description: description,
		Status:      models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// GetByID 根据ID获取角色
func (s *RoleService) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Where("deleted = ?", false).
		Preload("Permissions", "deleted = ?", false).
		First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("角色不存在")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetWithPage 分页获取角色列表
func (s *RoleService) GetWithPage(ctx context.Context, status string, page, pageSize int) ([]*models.Role, int64, error) {
	var roles []*models.Role
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Role{}).Where("deleted = ?", false)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = pagination.Normalize(page, pageSize)
	err := query.Offset(pagination.Offset(page, pageSize)).Limit(pageSize).Find(&roles).Error
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// Update 更新角色
func (s *RoleService) Update(ctx context.Context, id uint, name, description, status string) (*models.Role, error) {
	if err := s.validateUpdateParams(name, status); err != nil {
		return nil, err
	}

	var role models.Role
	err := s.db.WithContext(ctx).Where("deleted = ?", false).First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("角色不存在")
	}
	if err != nil {
		return nil, err
	}

	disabling := role.Status == models.StatusActive && status != models.StatusActive
	role.Name = name
	role.Description = description
	role.Status = status
	if err := s.db.WithContext(ctx).Save(&role).Error; err != nil {
		return nil, err
	}

	// 禁用角色会让成员失去其授权，成员可见树需要失效
	if disabling {
		s.cacheFacade.OnRolePermissionsChanged(ctx, id)
	}
	return &role, nil
}

// Delete 删除角色（软删除），成员的可见树随之失效
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	var role models.Role
	err := s.db.WithContext(ctx).Where("deleted = ?", false).First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcerr.NewNotFound("角色不存在")
	}
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.Role{}).
		Where("id = ?", id).Update("deleted", true).Error; err != nil {
		return err
	}

	s.cacheFacade.OnRolePermissionsChanged(ctx, id)
	return nil
}

// ========== 单项关系操作 ==========

// AssignRoleToUser 为用户分配角色
func (s *RoleService) AssignRoleToUser(ctx context.Context, userID, roleID uint) error {
	db := s.db.WithContext(ctx)

	user, err := s.findUsableUser(db, userID)
	if err != nil {
		return err
	}
	if _, err := s.findUsableRole(db, roleID); err != nil {
		return err
	}

	exists, err := s.userRoleExists(db, userID, roleID)
	if err != nil {
		return err
	}
	if exists {
		return svcerr.NewAlreadyExists("用户已拥有该角色")
	}

	result := db.Create(&models.UserRole{UserID: user.ID, RoleID: roleID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected <= 0 {
		return svcerr.NewOperationFailed("分配角色失败")
	}

	s.cacheFacade.OnUserRolesChanged(ctx, userID)
	return nil
}

// RemoveRoleFromUser 移除用户角色，关系已不存在视为成功
func (s *RoleService) RemoveRoleFromUser(ctx context.Context, userID, roleID uint) error {
	db := s.db.WithContext(ctx)

	exists, err := s.userRoleExists(db, userID, roleID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	result := db.Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected <= 0 {
		return svcerr.NewOperationFailed("移除角色失败")
	}

	s.cacheFacade.OnUserRolesChanged(ctx, userID)
	return nil
}

// AddPermissionToRole 为角色绑定权限
func (s *RoleService) AddPermissionToRole(ctx context.Context, roleID, permissionID uint) error {
	db := s.db.WithContext(ctx)

	if _, err := s.findUsableRole(db, roleID); err != nil {
		return err
	}
	if _, err := s.findUsablePermission(db, permissionID); err != nil {
		return err
	}

	exists, err := s.rolePermissionExists(db, roleID, permissionID)
	if err != nil {
		return err
	}
	if exists {
		return svcerr.NewAlreadyExists("角色已拥有该权限")
	}

	result := db.Create(&models.RolePermission{RoleID: roleID, PermissionID: permissionID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected <= 0 {
		return svcerr.NewOperationFailed("绑定权限失败")
	}

	s.cacheFacade.OnRolePermissionsChanged(ctx, roleID)
	return nil
}

// RemovePermissionFromRole 解绑角色权限，关系已不存在视为成功
func (s *RoleService) RemovePermissionFromRole(ctx context.Context, roleID, permissionID uint) error {
	db := s.db.WithContext(ctx)

	exists, err := s.rolePermissionExists(db, roleID, permissionID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	result := db.Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected <= 0 {
		return svcerr.NewOperationFailed("移除权限失败")
	}

	s.cacheFacade.OnRolePermissionsChanged(ctx, roleID)
	return nil
}

// ========== 批量关系操作 ==========

// AssignRoleToUsers 批量为用户分配角色，逐项独立处理
func (s *RoleService) AssignRoleToUsers(ctx context.Context, roleID uint, userIDs []uint) (*BatchOperationResult, error) {
	result := NewBatchOperationResult()
	if len(userIDs) == 0 {
		return result, nil
	}
	result.TotalCount = len(userIDs)

	db := s.db.WithContext(ctx)
	if _, err := s.findUsableRole(db, roleID); err != nil {
		return nil, err
	}

	affected := make([]uint, 0, len(userIDs))
	for _, userID := range userIDs {
		user, err := s.findUsableUser(db, userID)
		if err != nil {
			if svcerr.AsServiceError(err) != nil {
				result.addInvalid(userID)
				continue
			}
			result.addFailed(userID, err)
			continue
		}

		exists, err := s.userRoleExists(db, userID, roleID)
		if err != nil {
			result.addFailed(userID, err)
			continue
		}
		if exists {
			result.addDuplicated(userID)
			continue
		}

		if err := db.Create(&models.UserRole{UserID: user.ID, RoleID: roleID}).Error; err != nil {
			result.addFailed(userID, err)
			continue
		}
		result.SuccessCount++
		affected = append(affected, userID)
	}

	// 每个受影响用户失效一次，而不是每项一次
	s.evictUsers(ctx, affected)
	return result, nil
}

// RemoveRoleFromUsers 批量移除用户角色
func (s *RoleService) RemoveRoleFromUsers(ctx context.Context, roleID uint, userIDs []uint) (*BatchOperationResult, error) {
	result := NewBatchOperationResult()
	if len(userIDs) == 0 {
		return result, nil
	}
	result.TotalCount = len(userIDs)

	db := s.db.WithContext(ctx)
	affected := make([]uint, 0, len(userIDs))
	for _, userID := range userIDs {
		exists, err := s.userRoleExists(db, userID, roleID)
		if err != nil {
			result.addFailed(userID, err)
			continue
		}
		if !exists {
			result.addDuplicated(userID)
			continue
		}

		if err := db.Where("user_id = ? AND role_id = ?", userID, roleID).
			Delete(&models.UserRole{}).Error; err != nil {
			result.addFailed(userID, err)
			continue
		}
		result.SuccessCount++
		affected = append(affected, userID)
	}

	s.evictUsers(ctx, affected)
	return result, nil
}

// AddPermissionsToRole 批量为角色绑定权限
func (s *RoleService) AddPermissionsToRole(ctx context.Context, roleID uint, permissionIDs []uint) (*BatchOperationResult, error) {
	result := NewBatchOperationResult()
	if len(permissionIDs) == 0 {
		return result, nil
	}
	result.TotalCount = len(permissionIDs)

	db := s.db.WithContext(ctx)
	if _, err := s.findUsableRole(db, roleID); err != nil {
		return nil, err
	}

	changed := false
	for _, permissionID := range permissionIDs {
		if _, err := s.findUsablePermission(db, permissionID); err != nil {
			if svcerr.AsServiceError(err) != nil {
				result.addInvalid(permissionID)
				continue
			}
			result.addFailed(permissionID, err)
			continue
		}

		exists, err := s.rolePermissionExists(db, roleID, permissionID)
		if err != nil {
			result.addFailed(permissionID, err)
			continue
		}
		if exists {
			result.addDuplicated(permissionID)
			continue
		}

		if err := db.Create(&models.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error; err != nil {
			result.addFailed(permissionID, err)
			continue
		}
		result.SuccessCount++
		changed = true
	}

	// 受影响主体是角色的全部成员，整批只失效一次
	if changed {
		s.cacheFacade.OnRolePermissionsChanged(ctx, roleID)
	}
	return result, nil
}

// RemovePermissionsFromRole 批量解绑角色权限
func (s *RoleService) RemovePermissionsFromRole(ctx context.Context, roleID uint, permissionIDs []uint) (*BatchOperationResult, error) {
	result := NewBatchOperationResult()
	if len(permissionIDs) == 0 {
		return result, nil
	}
	result.TotalCount = len(permissionIDs)

	db := s.db.WithContext(ctx)
	changed := false
	for _, permissionID := range permissionIDs {
		exists, err := s.rolePermissionExists(db, roleID, permissionID)
		if err != nil {
			result.addFailed(permissionID, err)
			continue
		}
		if !exists {
			result.addDuplicated(permissionID)
			continue
		}

		if err := db.Where("role_id = ? AND permission_id = ?", roleID, permissionID).
			Delete(&models.RolePermission{}).Error; err != nil {
			result.addFailed(permissionID, err)
			continue
		}
		result.SuccessCount++
		changed = true
	}

	if changed {
		s.cacheFacade.OnRolePermissionsChanged(ctx, roleID)
	}
	return result, nil
}

// ========== 查询方法 ==========

// GetRolePermissions 获取角色绑定的权限
func (s *RoleService) GetRolePermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	role, err := s.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// GetRoleUserIDs 获取持有角色的用户ID列表
func (s *RoleService) GetRoleUserIDs(ctx context.Context, roleID uint) ([]uint, error) {
	var userIDs []uint
	err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("role_id = ?", roleID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// ========== 内部方法 ==========

func (s *RoleService) evictUsers(ctx context.Context, userIDs []uint) {
	seen := make(map[uint]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		s.cacheFacade.OnUserRolesChanged(ctx, userID)
	}
}

func (s *RoleService) findUsableUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("用户不存在或已禁用")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsUsable() {
		return nil, svcerr.NewNotFound("用户不存在或已禁用")
	}
	return &user, nil
}

func (s *RoleService) findUsableRole(db *gorm.DB, roleID uint) (*models.Role, error) {
	var role models.Role
	err := db.First(&role, roleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("角色不存在或已禁用")
	}
	if err != nil {
		return nil, err
	}
	if !role.IsUsable() {
		return nil, svcerr.NewNotFound("角色不存在或已禁用")
	}
	return &role, nil
}

func (s *RoleService) findUsablePermission(db *gorm.DB, permissionID uint) (*models.Permission, error) {
	var permission models.Permission
	err := db.First(&permission, permissionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("权限不存在或已禁用")
	}
	if err != nil {
		return nil, err
	}
	if !permission.IsUsable() {
		return nil, svcerr.NewNotFound("权限不存在或已禁用")
	}
	return &permission, nil
}

func (s *RoleService) userRoleExists(db *gorm.DB, userID, roleID uint) (bool, error) {
	var count int64
	err := db.Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	return count > 0, err
}

func (s *RoleService) rolePermissionExists(db *gorm.DB, roleID, permissionID uint) (bool, error) {
	var count int64
	err := db.Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	return count > 0, err
}

// ========== 验证方法 ==========

func (s *RoleService) validateCode(code string) bool {
	if len(code) < 2 || len(code) > 50 {
		return false
	}
	// 只允许字母、数字和下划线
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}

func (s *RoleService) validateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 50
}

func (s *RoleService) validateStatus(status string) bool {
	return status == models.StatusActive || status == models.StatusInactive
}

func (s *RoleService) validateCreateParams(code, name string) error {
	if !s.validateCode(code) {
		return svcerr.NewInvalidParam("角色代码长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}
	if !s.validateName(name) {
		return svcerr.NewInvalidParam("角色名称长度必须在2-50个字符之间")
	}
	return nil
}

func (s *RoleService) validateUpdateParams(name, status string) error {
	if !s.validateName(name) {
		return svcerr.NewInvalidParam("角色名称长度必须在2-50个字符之间")
	}
	if !s.validateStatus(status) {
		return svcerr.NewInvalidParam("状态只能是active或inactive")
	}
	return nil
}
