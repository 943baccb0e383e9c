package services

import (
	"context"
	"time"

	"iams/internal/models"
	"iams/pkg/config"
	"iams/pkg/logger"
	"iams/pkg/pagination"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// OperationLogService 操作日志服务：写入、查询与定期清理
type OperationLogService struct {
	db   *gorm.DB
	cron *cron.Cron
}

// NewOperationLogService 创建操作日志服务
func NewOperationLogService(db *gorm.DB) *OperationLogService {
	return &OperationLogService{db: db}
}

// Record 写入一条操作日志，失败只记日志，不影响业务请求
func (s *OperationLogService) Record(entry *models.OperationLog) {
	if err := s.db.Create(entry).Error; err != nil {
		logger.GetLogger().Warnf("Failed to record operation log: %v", err)
	}
}

// GetWithPage 分页查询操作日志
func (s *OperationLogService) GetWithPage(ctx context.Context, userID uint, path string, page, pageSize int) ([]*models.OperationLog, int64, error) {
	var logs []*models.OperationLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.OperationLog{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if path != "" {
		query = query.Where("path LIKE ?", path+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = pagination.Normalize(page, pageSize)
	err := query.Order("id DESC").Offset(pagination.Offset(page, pageSize)).Limit(pageSize).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CleanupExpired 删除超出保留期的日志，返回删除条数
func (s *OperationLogService) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.OperationLog{})
	return result.RowsAffected, result.Error
}

// StartCleanupScheduler 启动定期清理任务
func (s *OperationLogService) StartCleanupScheduler() error {
	cfg := config.GetConfig()
	appLogger := logger.GetLogger()

	s.cron = cron.New()
	_, err := s.cron.AddFunc(cfg.OpLog.CleanupCron, func() {
		deleted, err := s.CleanupExpired(context.Background(), cfg.OpLog.RetentionDays)
		if err != nil {
			appLogger.Errorf("Operation log cleanup failed: %v", err)
			return
		}
		appLogger.Infof("Operation log cleanup completed, deleted %d entries", deleted)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	appLogger.Infof("Operation log cleanup scheduler started (cron: %s, retention: %d days)",
		cfg.OpLog.CleanupCron, cfg.OpLog.RetentionDays)
	return nil
}

// StopCleanupScheduler 停止定期清理任务
func (s *OperationLogService) StopCleanupScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
