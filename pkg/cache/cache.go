package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store Redis缓存存储，按命名空间组织键
type Store struct {
	client *redis.Client
	prefix string
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewStore 基于已有客户端创建缓存存储
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "iams:cache"
	}
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// NewStoreFromConfig 创建缓存存储及其Redis连接
func NewStoreFromConfig(config *Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})
	return NewStore(client, config.Prefix)
}

// Close 关闭Redis连接
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping 测试Redis连接
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// buildKey 组合完整键：prefix:namespace:key
func (s *Store) buildKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, namespace, key)
}

// Get 读取缓存并反序列化到dest，返回是否命中
func (s *Store) Get(ctx context.Context, namespace, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, s.buildKey(namespace, key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("读取缓存失败: %v", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("反序列化缓存值失败: %v", err)
	}
	return true, nil
}

// Set 序列化并写入缓存，expiration为0表示永不过期
func (s *Store) Set(ctx context.Context, namespace, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("序列化缓存值失败: %v", err)
	}
	if err := s.client.Set(ctx, s.buildKey(namespace, key), data, expiration).Err(); err != nil {
		return fmt.Errorf("写入缓存失败: %v", err)
	}
	return nil
}

// Evict 删除指定键，键不存在不算错误
func (s *Store) Evict(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		fullKeys = append(fullKeys, s.buildKey(namespace, key))
	}
	if err := s.client.Del(ctx, fullKeys...).Err(); err != nil {
		return fmt.Errorf("删除缓存失败: %v", err)
	}
	return nil
}

// ClearNamespace 清空整个命名空间（SCAN逐批删除，避免阻塞Redis）
func (s *Store) ClearNamespace(ctx context.Context, namespace string) error {
	pattern := fmt.Sprintf("%s:%s:*", s.prefix, namespace)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return fmt.Errorf("扫描缓存键失败: %v", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("删除缓存失败: %v", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
