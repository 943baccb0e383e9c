package services

import (
	"context"
	"errors"

	"iams/internal/models"
	svcerr "iams/pkg/errors"
	"iams/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MenuInput 创建/更新菜单的入参
type MenuInput struct {
	ParentID  uint   `json:"parent_id"`
	Name      string `json:"name" binding:"required,max=50"`
	Code      string `json:"code" binding:"required,max=100"`
	Path      string `json:"path" binding:"max=200"`
	SortOrder int    `json:"sort_order"`
}

// MenuSortItem 菜单排序项
type MenuSortItem struct {
	ID        uint `json:"id" binding:"required"`
	SortOrder int  `json:"sort_order"`
}

// MenuMoveInput 菜单移动入参
type MenuMoveInput struct {
	ID           uint `json:"id" binding:"required"`
	NewParentID  uint `json:"new_parent_id"`
	NewSortOrder int  `json:"new_sort_order"`
}

// PermissionService 权限目录服务：树结构变更、目录查询
type PermissionService struct {
	db          *gorm.DB
	menuCache   *MenuCacheService
	cacheFacade *MenuCacheFacade
}

// NewPermissionService 创建权限服务
func NewPermissionService(db *gorm.DB, menuCache *MenuCacheService, cacheFacade *MenuCacheFacade) *PermissionService {
	return &PermissionService{
		db:          db,
		menuCache:   menuCache,
		cacheFacade: cacheFacade,
	}
}

// lock 行级锁（SELECT ... FOR UPDATE）。sqlite不支持该语法，
// 但其写入本身是串行的，跳过不影响正确性
func (s *PermissionService) lock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ========== 基础CRUD方法 ==========

// GetWithPage 分页获取权限节点
func (s *PermissionService) GetWithPage(ctx context.Context, permType string, page, pageSize int) ([]*models.Permission, int64, error) {
	var permissions []*models.Permission
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Permission{}).Where("deleted = ?", false)

	// 按类型筛选
	if permType != "" {
		query = query.Where("type = ?", permType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = pagination.Normalize(page, pageSize)
	err := query.Order("parent_id ASC, sort_order ASC, id ASC").
		Offset(pagination.Offset(page, pageSize)).Limit(pageSize).Find(&permissions).Error
	if err != nil {
		return nil, 0, err
	}

	return permissions, total, nil
}

// GetByID 根据ID获取权限节点（未删除）
func (s *PermissionService) GetByID(ctx context.Context, id uint) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.WithContext(ctx).Where("deleted = ?", false).First(&permission, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("权限节点不存在")
	}
	if err != nil {
		return nil, err
	}
	return &permission, nil
}

// CreateAction 创建操作权限节点（非树形管理，一般预设）
func (s *PermissionService) CreateAction(ctx context.Context, code, name string) (*models.Permission, error) {
	if code == "" || name == "" {
		return nil, svcerr.NewInvalidParam("权限名称或编码不能为空")
	}
	if err := s.checkCodeUnique(s.db.WithContext(ctx), code, 0); err != nil {
		return nil, err
	}

	permission := &models.Permission{
		Code:   code,
		Name:   name,
		Type:   models.PermissionTypeAction,
		Status: models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(permission).Error; err != nil {
		return nil, err
	}
	return permission, nil
}

// ========== 菜单树变更 ==========

// CreateMenu 创建菜单节点
func (s *PermissionService) CreateMenu(ctx context.Context, input MenuInput) (*models.Permission, error) {
	if input.Name == "" || input.Code == "" {
		return nil, svcerr.NewInvalidParam("菜单名称或编码不能为空")
	}

	permission := &models.Permission{
		Code:      input.Code,
		Name:      input.Name,
		Type:      models.PermissionTypeMenu,
		Path:      input.Path,
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
		Status:    models.StatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkCodeUnique(tx, input.Code, 0); err != nil {
			return err
		}
		if err := s.checkParentUsable(tx, input.ParentID); err != nil {
			return err
		}
		return tx.Create(permission).Error
	})
	if err != nil {
		return nil, err
	}

	// 新节点对既有用户的可达性无法低成本判断，整体失效
	s.cacheFacade.OnCatalogStructureChanged(ctx)
	return permission, nil
}

// UpdateMenu 更新菜单节点
func (s *PermissionService) UpdateMenu(ctx context.Context, id uint, input MenuInput) (*models.Permission, error) {
	var updated models.Permission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exist models.Permission
		err := s.lock(tx).
			Where("deleted = ? AND type = ?", false, models.PermissionTypeMenu).
			First(&exist, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcerr.NewNotFound("菜单不存在")
		}
		if err != nil {
			return err
		}

		if input.Code != "" {
			if err := s.checkCodeUnique(tx, input.Code, id); err != nil {
				return err
			}
			exist.Code = input.Code
		}
		if input.Name != "" {
			exist.Name = input.Name
		}
		if input.ParentID != exist.ParentID {
			if input.ParentID == id {
				return svcerr.NewInvalidParam("父节点不能是自身")
			}
			if err := s.checkParentUsable(tx, input.ParentID); err != nil {
				return err
			}
			if err := s.checkNoCycle(tx, id, input.ParentID); err != nil {
				return err
			}
			exist.ParentID = input.ParentID
		}
		exist.Path = input.Path
		exist.SortOrder = input.SortOrder

		if err := tx.Save(&exist).Error; err != nil {
			return err
		}
		updated = exist
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheFacade.OnCatalogStructureChanged(ctx)
	return &updated, nil
}

// DeleteMenu 删除菜单节点（非级联）：存在未删除的子节点时拒绝
func (s *PermissionService) DeleteMenu(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exist models.Permission
		err := s.lock(tx).Where("deleted = ?", false).First(&exist, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcerr.NewNotFound("菜单不存在")
		}
		if err != nil {
			return err
		}

		var children int64
		if err := tx.Model(&models.Permission{}).
			Where("parent_id = ? AND deleted = ?", id, false).
			Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return svcerr.NewInvalidParam("请先删除子菜单")
		}

		return tx.Model(&models.Permission{}).Where("id = ?", id).
			Update("deleted", true).Error
	})
	if err != nil {
		return err
	}

	s.cacheFacade.OnCatalogStructureChanged(ctx)
	return nil
}

// DeleteMenuCascade 级联删除：收集整个子孙集合后统一软删除。
// 软删除幂等，调用中断后重试安全
func (s *PermissionService) DeleteMenuCascade(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exist models.Permission
		err := s.lock(tx).Where("deleted = ?", false).First(&exist, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcerr.NewNotFound("菜单不存在")
		}
		if err != nil {
			return err
		}

		// 显式栈遍历收集子孙，避免深树打爆调用栈
		collected := []uint{}
		stack := []uint{id}
		visited := map[uint]bool{id: true}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			collected = append(collected, current)

			var children []uint
			if err := s.lock(tx).Model(&models.Permission{}).
				Where("parent_id = ? AND deleted = ?", current, false).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			for _, child := range children {
				if !visited[child] {
					visited[child] = true
					stack = append(stack, child)
				}
			}
		}

		return tx.Model(&models.Permission{}).Where("id IN ?", collected).
			Update("deleted", true).Error
	})
	if err != nil {
		return err
	}

	s.cacheFacade.OnCatalogStructureChanged(ctx)
	return nil
}

// BatchUpdateSort 批量更新排序值：各项独立写入，不保证全部成功
func (s *PermissionService) BatchUpdateSort(ctx context.Context, items []MenuSortItem) error {
	if len(items) == 0 {
		return nil
	}
	var firstErr error
	changed := false
	for _, item := range items {
		err := s.db.WithContext(ctx).Model(&models.Permission{}).
			Where("id = ? AND deleted = ?", item.ID, false).
			Update("sort_order", item.SortOrder).Error
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		changed = true
	}
	if changed {
		// 批量结束后统一失效一次
		s.cacheFacade.OnCatalogStructureChanged(ctx)
	}
	return firstErr
}

// MoveMenu 移动菜单节点：环检测与父节点更新在同一事务内完成，
// 被移动节点及其遍历到的子孙行都持有行锁，避免检测与写入之间被并发移动穿插
func (s *PermissionService) MoveMenu(ctx context.Context, input MenuMoveInput) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Permission
		err := s.lock(tx).
			Where("deleted = ? AND type = ?", false, models.PermissionTypeMenu).
			First(&current, input.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcerr.NewNotFound("菜单不存在")
		}
		if err != nil {
			return err
		}

		if input.NewParentID == current.ID {
			return svcerr.NewInvalidParam("父节点不能是自身")
		}
		if input.NewParentID != 0 {
			if err := s.checkParentUsable(tx, input.NewParentID); err != nil {
				return err
			}
			if err := s.checkNoCycle(tx, current.ID, input.NewParentID); err != nil {
				return err
			}
		}

		return tx.Model(&models.Permission{}).Where("id = ?", current.ID).
			Updates(map[string]interface{}{
				"parent_id":  input.NewParentID,
				"sort_order": input.NewSortOrder,
			}).Error
	})
	if err != nil {
		return err
	}

	s.cacheFacade.OnCatalogStructureChanged(ctx)
	return nil
}

// ========== 目录查询 ==========

// GetMenuTree 获取全量菜单树（缓存旁路：未命中查库后回填）
func (s *PermissionService) GetMenuTree(ctx context.Context) ([]*MenuNode, error) {
	if tree, found := s.menuCache.GetMenuTree(ctx); found {
		return tree, nil
	}

	menus, err := s.findMenuCatalog(ctx)
	if err != nil {
		return nil, err
	}
	tree := BuildMenuTree(menus)
	s.menuCache.SetMenuTree(ctx, tree)
	return tree, nil
}

// findMenuCatalog 查询全部未删除菜单节点，树构建要求的顺序在SQL层保证
func (s *PermissionService) findMenuCatalog(ctx context.Context) ([]*models.Permission, error) {
	var menus []*models.Permission
	err := s.db.WithContext(ctx).
		Where("type = ? AND deleted = ?", models.PermissionTypeMenu, false).
		Order("parent_id ASC, sort_order ASC, id ASC").
		Find(&menus).Error
	return menus, err
}

// checkCodeUnique 编码在未删除节点内唯一，excludeID排除自身
func (s *PermissionService) checkCodeUnique(tx *gorm.DB, code string, excludeID uint) error {
	query := tx.Model(&models.Permission{}).Where("code = ? AND deleted = ?", code, false)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return svcerr.NewAlreadyExists("菜单编码已存在")
	}
	return nil
}

// checkParentUsable 父节点必须存在、未删除、同为菜单且启用；parentID为0表示根
func (s *PermissionService) checkParentUsable(tx *gorm.DB, parentID uint) error {
	if parentID == 0 {
		return nil
	}
	var parent models.Permission
	err := tx.Where("deleted = ?", false).First(&parent, parentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcerr.NewInvalidParam("父节点不存在")
	}
	if err != nil {
		return err
	}
	if parent.Type != models.PermissionTypeMenu {
		return svcerr.NewInvalidParam("父节点必须是菜单类型")
	}
	if parent.Status != models.StatusActive {
		return svcerr.NewInvalidParam("父节点已禁用")
	}
	return nil
}

// checkNoCycle 校验换父之后 parent_id 链路不会成环；任何换父写入前都必须过这道检查
func (s *PermissionService) checkNoCycle(tx *gorm.DB, nodeID, newParentID uint) error {
	if newParentID == 0 {
		return nil
	}
	cycle, err := WouldCycle(nodeID, newParentID, func(id uint) ([]uint, error) {
		var children []uint
		err := s.lock(tx).Model(&models.Permission{}).
			Where("parent_id = ? AND deleted = ?", id, false).
			Pluck("id", &children).Error
		return children, err
	})
	if err != nil {
		return err
	}
	if cycle {
		return svcerr.NewInvalidParam("不能将节点移动到其子孙节点下")
	}
	return nil
}
