package models

import (
	"gorm.io/datatypes"
)

// OperationLog 操作日志（记录写操作请求）
type OperationLog struct {
	BaseModel
	RequestID  string         `gorm:"size:64;index" json:"request_id"`  // 请求追踪ID
	UserID     uint           `gorm:"index" json:"user_id"`             // 操作人，0表示匿名
	Username   string         `gorm:"size:50" json:"username"`          // 操作人用户名快照
	Method     string         `gorm:"size:10" json:"method"`            // HTTP方法
	Path       string         `gorm:"size:200;index" json:"path"`       // 请求路径
	StatusCode int            `json:"status_code"`                      // 响应状态码
	Latency    int64          `json:"latency_ms"`                       // 耗时（毫秒）
	ClientIP   string         `gorm:"size:50" json:"client_ip"`         // 客户端IP
	Params     datatypes.JSON `gorm:"type:jsonb" json:"params"`         // 请求体快照
}

// TableName 表名
func (o *OperationLog) TableName() string {
	return "operation_logs"
}
