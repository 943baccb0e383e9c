package handlers

import (
	"strconv"

	"iams/internal/services"
	"iams/pkg/pagination"
	"iams/pkg/response"

	"github.com/gin-gonic/gin"
)

type OperationLogHandler struct {
	opLogService *services.OperationLogService
}

func NewOperationLogHandler(opLogService *services.OperationLogService) *OperationLogHandler {
	return &OperationLogHandler{opLogService: opLogService}
}

// GetAll 获取操作日志列表（分页）
func (h *OperationLogHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "用户ID格式错误")
			return
		}
		userID = uint(parsed)
	}
	pathPrefix := c.Query("path")

	logs, total, err := h.opLogService.GetWithPage(c.Request.Context(), userID, pathPrefix, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, logs, pageInfo)
}
