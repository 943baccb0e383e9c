package services

import (
	"context"
	"testing"
	"time"

	"iams/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationLogRecordAndQuery(t *testing.T) {
	db := newTestDB(t)
	svc := NewOperationLogService(db)
	ctx := context.Background()

	svc.Record(&models.OperationLog{
		RequestID: "req-1", UserID: 1, Username: "alice",
		Method: "POST", Path: "/api/v1/roles", StatusCode: 200, Latency: 12,
	})
	svc.Record(&models.OperationLog{
		RequestID: "req-2", UserID: 2, Username: "bob",
		Method: "DELETE", Path: "/api/v1/menus/3", StatusCode: 200, Latency: 8,
	})

	logs, total, err := svc.GetWithPage(ctx, 0, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	// 最新的在前
	assert.Equal(t, "req-2", logs[0].RequestID)

	// 按用户过滤
	logs, total, err = svc.GetWithPage(ctx, 1, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "alice", logs[0].Username)

	// 按路径前缀过滤
	_, total, err = svc.GetWithPage(ctx, 0, "/api/v1/menus", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestOperationLogCleanupExpired(t *testing.T) {
	db := newTestDB(t)
	svc := NewOperationLogService(db)
	ctx := context.Background()

	old := &models.OperationLog{RequestID: "old", Method: "POST", Path: "/x"}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).
		Update("created_at", time.Now().AddDate(0, 0, -100)).Error)
	recent := &models.OperationLog{RequestID: "recent", Method: "POST", Path: "/y"}
	require.NoError(t, db.Create(recent).Error)

	deleted, err := svc.CleanupExpired(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []string
	db.Model(&models.OperationLog{}).Pluck("request_id", &remaining)
	assert.Equal(t, []string{"recent"}, remaining)
}
