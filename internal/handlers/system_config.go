package handlers

import (
	"iams/internal/services"
	"iams/pkg/response"

	"github.com/gin-gonic/gin"
)

type SetConfigRequest struct {
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
}

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(configService *services.SystemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{configService: configService}
}

// GetAll 获取全部系统配置
func (h *SystemConfigHandler) GetAll(c *gin.Context) {
	configs, err := h.configService.List(c.Request.Context())
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, configs)
}

// Get 按键获取配置
func (h *SystemConfigHandler) Get(c *gin.Context) {
	key := c.Param("key")
	config, err := h.configService.Get(c.Request.Context(), key)
	if err != nil {
		response.HandleError(c, err, "查询失败")
		return
	}
	response.Success(c, config)
}

// Set 设置配置
func (h *SystemConfigHandler) Set(c *gin.Context) {
	key := c.Param("key")

	var req SetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	config, err := h.configService.Set(c.Request.Context(), key, req.Value, req.Description)
	if err != nil {
		response.HandleError(c, err, "保存失败")
		return
	}
	response.SuccessWithMessage(c, "保存成功", config)
}
