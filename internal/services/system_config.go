package services

import (
	"context"
	"errors"
	"time"

	"iams/internal/models"
	"iams/pkg/cache"
	"iams/pkg/config"
	svcerr "iams/pkg/errors"
	"iams/pkg/logger"

	"gorm.io/gorm"
)

const cacheNamespaceSystemConfig = "systemConfig"

// SystemConfigService 系统配置服务，读路径走缓存旁路
type SystemConfigService struct {
	db    *gorm.DB
	store *cache.Store
	ttl   time.Duration
}

// NewSystemConfigService 创建系统配置服务
func NewSystemConfigService(db *gorm.DB, store *cache.Store) *SystemConfigService {
	cfg := config.GetConfig()
	return &SystemConfigService{
		db:    db,
		store: store,
		ttl:   time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
	}
}

// Get 读取配置项，优先命中缓存
func (s *SystemConfigService) Get(ctx context.Context, key string) (*models.SystemConfig, error) {
	var cached models.SystemConfig
	found, err := s.store.Get(ctx, cacheNamespaceSystemConfig, key, &cached)
	if err != nil {
		logger.GetLogger().Warnf("system config cache read failed, bypassing: %v", err)
	} else if found {
		return &cached, nil
	}

	var item models.SystemConfig
	err = s.db.WithContext(ctx).Where("config_key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcerr.NewNotFound("配置项不存在")
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, cacheNamespaceSystemConfig, key, &item, s.ttl); err != nil {
		logger.GetLogger().Warnf("system config cache write failed: %v", err)
	}
	return &item, nil
}

// Set 新建或更新配置项，写库成功后失效缓存
func (s *SystemConfigService) Set(ctx context.Context, key, value, description string) (*models.SystemConfig, error) {
	if key == "" {
		return nil, svcerr.NewInvalidParam("配置键不能为空")
	}

	var item models.SystemConfig
	err := s.db.WithContext(ctx).Where("config_key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.SystemConfig{ConfigKey: key, ConfigValue: value, Description: description}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		item.ConfigValue = value
		if description != "" {
			item.Description = description
		}
		if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
			return nil, err
		}
	}

	if err := s.store.Evict(ctx, cacheNamespaceSystemConfig, key); err != nil {
		logger.GetLogger().Warnf("system config cache evict failed: %v", err)
	}
	return &item, nil
}

// List 列出全部配置项
func (s *SystemConfigService) List(ctx context.Context) ([]*models.SystemConfig, error) {
	var items []*models.SystemConfig
	err := s.db.WithContext(ctx).Order("config_key ASC").Find(&items).Error
	return items, err
}
