package services

import (
	"context"

	"iams/internal/models"
)

// VisibleTreeOptions 可见树查询选项
type VisibleTreeOptions struct {
	IncludeDisabled bool `form:"include_disabled"` // 是否把已禁用的授权节点也计入
	PruneEmpty      bool `form:"prune_empty"`      // 是否剪掉无子节点且未直接授权的分支
}

// GetVisibleMenuTree 计算指定用户通过角色可达的最小菜单森林。
// 直接授权节点向上补全祖先链，保证深层节点在渲染时从某个根连通；
// 结果按 (userID, 选项) 缓存，失效后下次读取时重建。
func (s *PermissionService) GetVisibleMenuTree(ctx context.Context, userID uint, opts VisibleTreeOptions) ([]*MenuNode, error) {
	if tree, found := s.menuCache.GetVisibleTree(ctx, userID, opts.IncludeDisabled, opts.PruneEmpty); found {
		return tree, nil
	}

	tree, err := s.computeVisibleMenuTree(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	s.menuCache.SetVisibleTree(ctx, userID, opts.IncludeDisabled, opts.PruneEmpty, tree)
	return tree, nil
}

// computeVisibleMenuTree 直接从仓储计算可见树，不经过缓存
func (s *PermissionService) computeVisibleMenuTree(ctx context.Context, userID uint, opts VisibleTreeOptions) ([]*MenuNode, error) {
	granted, err := s.findMenusByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 无授权返回空森林而不是错误
	if len(granted) == 0 {
		return []*MenuNode{}, nil
	}

	// 全量目录索引，祖先链补全需要能查到任意节点的父节点
	catalog, err := s.findMenuCatalog(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Permission, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	// 直接授权集：默认排除禁用节点，禁用的祖先只在连通性需要时加入
	grantedSet := make(map[uint]bool, len(granted))
	for _, p := range granted {
		if !opts.IncludeDisabled && p.Status != models.StatusActive {
			continue
		}
		grantedSet[p.ID] = true
	}

	// 祖先闭包：沿parent_id向上，遇到根、缺失或已包含的祖先即停
	include := make(map[uint]bool, len(grantedSet))
	for id := range grantedSet {
		current := id
		for {
			if include[current] {
				break
			}
			include[current] = true
			node, ok := byID[current]
			if !ok || node.ParentID == 0 {
				break
			}
			current = node.ParentID
		}
	}

	// 目录序上重建受限森林
	visible := make([]*models.Permission, 0, len(include))
	for _, p := range catalog {
		if include[p.ID] {
			visible = append(visible, p)
		}
	}
	tree := BuildMenuTree(visible)

	if opts.PruneEmpty {
		tree = PruneEmptyBranches(tree, grantedSet)
	}
	return tree, nil
}

// findMenusByUserID 查询用户经全部角色授权的菜单节点（按节点去重）。
// 只计入未删除且启用的角色
func (s *PermissionService) findMenusByUserID(ctx context.Context, userID uint) ([]*models.Permission, error) {
	var menus []*models.Permission
	err := s.db.WithContext(ctx).
		Model(&models.Permission{}).
		Distinct("permissions.*").
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Joins("JOIN roles r ON r.id = rp.role_id AND r.deleted = ? AND r.status = ?", false, models.StatusActive).
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ? AND permissions.deleted = ? AND permissions.type = ?",
			userID, false, models.PermissionTypeMenu).
		Find(&menus).Error
	return menus, err
}
