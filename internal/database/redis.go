package database

import (
	"iams/pkg/cache"
	"iams/pkg/config"
	"sync"
)

var (
	cacheStoreInstance *cache.Store
	cacheStoreOnce     sync.Once
)

// GetCacheStore 获取Redis缓存存储的单例实例
func GetCacheStore() *cache.Store {
	cacheStoreOnce.Do(func() {
		cfg := config.GetConfig()
		cacheStoreInstance = cache.NewStoreFromConfig(&cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Cache.Prefix,
		})
	})
	return cacheStoreInstance
}

// CloseCacheStore 关闭Redis连接
func CloseCacheStore() error {
	if cacheStoreInstance != nil {
		return cacheStoreInstance.Close()
	}
	return nil
}
