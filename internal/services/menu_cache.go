package services

import (
	"context"
	"fmt"
	"time"

	"iams/internal/models"
	"iams/pkg/cache"
	"iams/pkg/config"
	"iams/pkg/logger"

	"gorm.io/gorm"
)

// 缓存命名空间
const (
	cacheNamespaceMenuTree = "menuTree"        // 全量菜单目录
	cacheNamespaceVisible  = "visibleMenuTree" // 按用户的可见菜单树
)

// menuTreeCacheKey 全量目录只有一个键
const menuTreeCacheKey = "all"

// visibleCacheKey 可见树缓存键：userId + 选项位，键空间可枚举
func visibleCacheKey(userID uint, includeDisabled, pruneEmpty bool) string {
	return fmt.Sprintf("%d:%t:%t", userID, includeDisabled, pruneEmpty)
}

// MenuCacheService 菜单缓存的写入与精确失效
type MenuCacheService struct {
	store *cache.Store
	ttl   time.Duration
}

// NewMenuCacheService 创建菜单缓存服务
func NewMenuCacheService(store *cache.Store) *MenuCacheService {
	cfg := config.GetConfig()
	return &MenuCacheService{
		store: store,
		ttl:   time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
	}
}

// GetMenuTree 读取全量目录缓存，未命中或缓存异常返回false
func (s *MenuCacheService) GetMenuTree(ctx context.Context) ([]*MenuNode, bool) {
	var tree []*MenuNode
	found, err := s.store.Get(ctx, cacheNamespaceMenuTree, menuTreeCacheKey, &tree)
	if err != nil {
		// 缓存读取失败降级为未命中，由调用方直接查库
		logger.GetLogger().Warnf("menu tree cache read failed, bypassing: %v", err)
		return nil, false
	}
	return tree, found
}

// SetMenuTree 写入全量目录缓存
func (s *MenuCacheService) SetMenuTree(ctx context.Context, tree []*MenuNode) {
	if err := s.store.Set(ctx, cacheNamespaceMenuTree, menuTreeCacheKey, tree, s.ttl); err != nil {
		logger.GetLogger().Warnf("menu tree cache write failed: %v", err)
	}
}

// GetVisibleTree 读取指定用户和选项的可见树缓存
func (s *MenuCacheService) GetVisibleTree(ctx context.Context, userID uint, includeDisabled, pruneEmpty bool) ([]*MenuNode, bool) {
	var tree []*MenuNode
	found, err := s.store.Get(ctx, cacheNamespaceVisible, visibleCacheKey(userID, includeDisabled, pruneEmpty), &tree)
	if err != nil {
		logger.GetLogger().Warnf("visible tree cache read failed, bypassing: %v", err)
		return nil, false
	}
	return tree, found
}

// SetVisibleTree 写入可见树缓存
func (s *MenuCacheService) SetVisibleTree(ctx context.Context, userID uint, includeDisabled, pruneEmpty bool, tree []*MenuNode) {
	if err := s.store.Set(ctx, cacheNamespaceVisible, visibleCacheKey(userID, includeDisabled, pruneEmpty), tree, s.ttl); err != nil {
		logger.GetLogger().Warnf("visible tree cache write failed: %v", err)
	}
}

// EvictMenuTree 清除全量目录缓存
func (s *MenuCacheService) EvictMenuTree(ctx context.Context) {
	if err := s.store.ClearNamespace(ctx, cacheNamespaceMenuTree); err != nil {
		logger.GetLogger().Warnf("menu tree cache evict failed: %v", err)
	}
}

// EvictVisibleForUser 清除单个用户在所有选项组合下的可见树缓存。
// 选项空间是2×2布尔组合，直接枚举，不依赖缓存存储的模式删除能力。
func (s *MenuCacheService) EvictVisibleForUser(ctx context.Context, userID uint) {
	if userID == 0 {
		return
	}
	bools := []bool{false, true}
	keys := make([]string, 0, 4)
	for _, includeDisabled := range bools {
		for _, pruneEmpty := range bools {
			keys = append(keys, visibleCacheKey(userID, includeDisabled, pruneEmpty))
		}
	}
	if err := s.store.Evict(ctx, cacheNamespaceVisible, keys...); err != nil {
		logger.GetLogger().Warnf("visible tree cache evict failed for user %d: %v", userID, err)
	}
}

// EvictVisibleForUsers 批量清除多个用户的可见树缓存
func (s *MenuCacheService) EvictVisibleForUsers(ctx context.Context, userIDs []uint) {
	for _, userID := range userIDs {
		s.EvictVisibleForUser(ctx, userID)
	}
}

// EvictVisibleAllUsers 清空整个可见树命名空间
func (s *MenuCacheService) EvictVisibleAllUsers(ctx context.Context) {
	if err := s.store.ClearNamespace(ctx, cacheNamespaceVisible); err != nil {
		logger.GetLogger().Warnf("visible tree cache clear failed: %v", err)
	}
}

// MenuCacheFacade 关系变更事件到缓存失效的分发器。
// 失效失败只记日志不回传错误：写库成功后不能因缓存失败而让操作失败，
// 残留的脏数据靠TTL兜底。
type MenuCacheFacade struct {
	cacheService *MenuCacheService
	db           *gorm.DB
}

// NewMenuCacheFacade 创建缓存失效分发器
func NewMenuCacheFacade(cacheService *MenuCacheService, db *gorm.DB) *MenuCacheFacade {
	return &MenuCacheFacade{
		cacheService: cacheService,
		db:           db,
	}
}

// OnUserRolesChanged 用户-角色关系变化后调用
func (f *MenuCacheFacade) OnUserRolesChanged(ctx context.Context, userID uint) {
	if userID == 0 {
		return
	}
	f.cacheService.EvictVisibleForUser(ctx, userID)
}

// OnRolePermissionsChanged 角色-权限关系变化后调用：
// 解析当前持有该角色的用户并逐个失效，角色无成员时为空操作
func (f *MenuCacheFacade) OnRolePermissionsChanged(ctx context.Context, roleID uint) {
	if roleID == 0 {
		return
	}
	userIDs, err := f.findUserIDsByRoleID(ctx, roleID)
	if err != nil {
		// 查不到成员时宁可全量失效，避免漏失效导致脏读
		logger.GetLogger().Warnf("resolve role %d members failed, clearing all visible caches: %v", roleID, err)
		f.cacheService.EvictVisibleAllUsers(ctx)
		return
	}
	f.cacheService.EvictVisibleForUsers(ctx, userIDs)
}

// OnCatalogStructureChanged 目录结构变化（增删改移）后调用：
// 结构变化可能影响任意用户的祖先链，全量失效
func (f *MenuCacheFacade) OnCatalogStructureChanged(ctx context.Context) {
	f.cacheService.EvictMenuTree(ctx)
	f.cacheService.EvictVisibleAllUsers(ctx)
}

// findUserIDsByRoleID 查询持有指定角色的用户ID
func (f *MenuCacheFacade) findUserIDsByRoleID(ctx context.Context, roleID uint) ([]uint, error) {
	var userIDs []uint
	err := f.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("role_id = ?", roleID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
