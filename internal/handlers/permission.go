package handlers

import (
	"fmt"
	"strconv"

	"iams/internal/services"
	"iams/pkg/pagination"
	"iams/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type PermissionHandler struct {
	service *services.PermissionService
}

func NewPermissionHandler(service *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		service: service,
	}
}

// CreateActionRequest 创建操作权限请求
type CreateActionRequest struct {
	Code string `json:"code" binding:"required,max=100"`
	Name string `json:"name" binding:"required,max=50"`
}

// BatchSortRequest 批量排序请求
type BatchSortRequest struct {
	Items []services.MenuSortItem `json:"items" binding:"required"`
}

// ========== 权限节点 ==========

// GetAll 获取所有权限节点（支持分页和类型筛选）
func (h *PermissionHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	permType := c.Query("type")

	permissions, total, err := h.service.GetWithPage(c.Request.Context(), permType, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, permissions, pageInfo)
}

// GetByID 获取单个权限节点
func (h *PermissionHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	permission, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, "查询失败")
		return
	}
	response.Success(c, permission)
}

// CreateAction 创建操作权限
func (h *PermissionHandler) CreateAction(c *gin.Context) {
	var req CreateActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	permission, err := h.service.CreateAction(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		response.HandleError(c, err, "创建失败")
		return
	}
	response.Success(c, permission)
}

// ========== 菜单树 ==========

// bindMenuInput 解析菜单入参，验证失败时给出字段级提示
func bindMenuInput(c *gin.Context, req *services.MenuInput) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if validationErr, ok := err.(validator.ValidationErrors); ok {
			errorMsg := "参数验证失败"
			for _, fieldErr := range validationErr {
				switch fieldErr.Field() {
				case "Name":
					errorMsg = "菜单名称不能为空，且长度不超过50个字符"
				case "Code":
					errorMsg = "菜单编码不能为空，且长度不超过100个字符"
				case "Path":
					errorMsg = "菜单路径长度不超过200个字符"
				default:
					errorMsg = fmt.Sprintf("字段 %s 验证失败", fieldErr.Field())
				}
				break // 只返回第一个错误
			}
			response.BadRequest(c, errorMsg)
			return false
		}
		response.BadRequest(c, "请求参数格式错误")
		return false
	}
	return true
}

// CreateMenu 创建菜单
func (h *PermissionHandler) CreateMenu(c *gin.Context) {
	var req services.MenuInput
	if !bindMenuInput(c, &req) {
		return
	}

	menu, err := h.service.CreateMenu(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err, "创建失败")
		return
	}
	response.Success(c, menu)
}

// UpdateMenu 更新菜单
func (h *PermissionHandler) UpdateMenu(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req services.MenuInput
	if !bindMenuInput(c, &req) {
		return
	}

	menu, err := h.service.UpdateMenu(c.Request.Context(), id, req)
	if err != nil {
		response.HandleError(c, err, "更新失败")
		return
	}
	response.Success(c, menu)
}

// DeleteMenu 删除菜单（非级联）
func (h *PermissionHandler) DeleteMenu(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.DeleteMenu(c.Request.Context(), id); err != nil {
		response.HandleError(c, err, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// DeleteMenuCascade 级联删除菜单
func (h *PermissionHandler) DeleteMenuCascade(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.DeleteMenuCascade(c.Request.Context(), id); err != nil {
		response.HandleError(c, err, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// BatchUpdateSort 批量更新菜单排序
func (h *PermissionHandler) BatchUpdateSort(c *gin.Context) {
	var req BatchSortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.BatchUpdateSort(c.Request.Context(), req.Items); err != nil {
		response.HandleError(c, err, "排序更新失败")
		return
	}
	response.SuccessWithMessage(c, "排序更新成功", nil)
}

// MoveMenu 移动菜单
func (h *PermissionHandler) MoveMenu(c *gin.Context) {
	var req services.MenuMoveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.service.MoveMenu(c.Request.Context(), req); err != nil {
		response.HandleError(c, err, "移动失败")
		return
	}
	response.SuccessWithMessage(c, "移动成功", nil)
}

// GetMenuTree 获取全量菜单树
func (h *PermissionHandler) GetMenuTree(c *gin.Context) {
	tree, err := h.service.GetMenuTree(c.Request.Context())
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, tree)
}

// GetVisibleMenuTree 获取当前登录用户的可见菜单树。
// 用户ID来自认证中间件注入的上下文，核心服务只接收显式参数
func (h *PermissionHandler) GetVisibleMenuTree(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "请先登录")
		return
	}

	var opts services.VisibleTreeOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tree, err := h.service.GetVisibleMenuTree(c.Request.Context(), userID.(uint), opts)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, tree)
}

// GetVisibleMenuTreeForUser 获取指定用户的可见菜单树（管理端查看）
func (h *PermissionHandler) GetVisibleMenuTreeForUser(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var opts services.VisibleTreeOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tree, err := h.service.GetVisibleMenuTree(c.Request.Context(), id, opts)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, tree)
}

// parseIDParam 解析路径中的:id参数
func parseIDParam(c *gin.Context) (uint, error) {
	return parseUintParam(c, "id")
}

// parseUintParam 解析路径中的无符号整数参数
func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
