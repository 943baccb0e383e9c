package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"iams/internal/models"
	"iams/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// 请求体快照的最大字节数，超出部分不记录
const maxRecordedBodySize = 4096

// OperationLogMiddleware 操作日志中间件（仅记录写操作）
type OperationLogMiddleware struct {
	opLogService *services.OperationLogService
}

func NewOperationLogMiddleware(opLogService *services.OperationLogService) *OperationLogMiddleware {
	return &OperationLogMiddleware{opLogService: opLogService}
}

// Record 记录写操作请求
func (m *OperationLogMiddleware) Record() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只记录写操作
		switch c.Request.Method {
		case "POST", "PUT", "PATCH", "DELETE":
		default:
			c.Next()
			return
		}

		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		// 读取请求体快照并复原，供后续handler使用
		var bodySnapshot []byte
		if c.Request.Body != nil {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRecordedBodySize))
			if err == nil {
				bodySnapshot = raw
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
			}
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		entry := &models.OperationLog{
			RequestID:  requestID,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
			Latency:    latency.Milliseconds(),
			ClientIP:   c.ClientIP(),
		}

		// 登录后的请求带用户信息
		if userID, exists := c.Get("user_id"); exists {
			entry.UserID = userID.(uint)
		}
		if username, exists := c.Get("username"); exists {
			entry.Username = username.(string)
		}

		// 只保留合法JSON的请求体
		if json.Valid(bodySnapshot) {
			entry.Params = datatypes.JSON(bodySnapshot)
		}

		m.opLogService.Record(entry)
	}
}
