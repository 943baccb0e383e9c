package handlers

import (
	"iams/internal/services"
	"iams/pkg/pagination"
	"iams/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreateRoleRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required"`
}

// BatchIDsRequest 批量关系操作请求
type BatchIDsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

type RoleHandler struct {
	service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{
		service: service,
	}
}

// ========== 基础CRUD方法 ==========

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	role, err := h.service.Create(c.Request.Context(), req.Code, req.Name, req.Description)
	if err != nil {
		response.HandleError(c, err, "创建失败")
		return
	}
	response.Success(c, role)
}

// GetAll 获取角色列表（分页）
func (h *RoleHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	status := c.Query("status")

	roles, total, err := h.service.GetWithPage(c.Request.Context(), status, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, roles, pageInfo)
}

// GetByID 获取角色
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	role, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, "查询失败")
		return
	}
	response.Success(c, role)
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	role, err := h.service.Update(c.Request.Context(), id, req.Name, req.Description, req.Status)
	if err != nil {
		response.HandleError(c, err, "更新失败")
		return
	}
	response.Success(c, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.HandleError(c, err, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 权限绑定 ==========

// GetPermissions 获取角色绑定的权限
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	permissions, err := h.service.GetRolePermissions(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, "查询失败")
		return
	}
	response.Success(c, permissions)
}

// AddPermission 为角色绑定单个权限
func (h *RoleHandler) AddPermission(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}
	permissionID, err := parseUintParam(c, "permission_id")
	if err != nil {
		response.BadRequest(c, "权限ID格式错误")
		return
	}

	if err := h.service.AddPermissionToRole(c.Request.Context(), roleID, permissionID); err != nil {
		response.HandleError(c, err, "绑定失败")
		return
	}
	response.SuccessWithMessage(c, "绑定成功", nil)
}

// RemovePermission 解绑角色单个权限
func (h *RoleHandler) RemovePermission(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}
	permissionID, err := parseUintParam(c, "permission_id")
	if err != nil {
		response.BadRequest(c, "权限ID格式错误")
		return
	}

	if err := h.service.RemovePermissionFromRole(c.Request.Context(), roleID, permissionID); err != nil {
		response.HandleError(c, err, "解绑失败")
		return
	}
	response.SuccessWithMessage(c, "解绑成功", nil)
}

// AddPermissions 批量为角色绑定权限
func (h *RoleHandler) AddPermissions(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req BatchIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.service.AddPermissionsToRole(c.Request.Context(), roleID, req.IDs)
	if err != nil {
		response.HandleError(c, err, "绑定失败")
		return
	}
	response.Success(c, result)
}

// RemovePermissions 批量解绑角色权限
func (h *RoleHandler) RemovePermissions(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req BatchIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.service.RemovePermissionsFromRole(c.Request.Context(), roleID, req.IDs)
	if err != nil {
		response.HandleError(c, err, "解绑失败")
		return
	}
	response.Success(c, result)
}

// ========== 用户分配 ==========

// GetUserIDs 获取持有角色的用户ID
func (h *RoleHandler) GetUserIDs(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	userIDs, err := h.service.GetRoleUserIDs(c.Request.Context(), id)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, userIDs)
}

// AssignUsers 批量将角色分配给用户
func (h *RoleHandler) AssignUsers(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req BatchIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.service.AssignRoleToUsers(c.Request.Context(), roleID, req.IDs)
	if err != nil {
		response.HandleError(c, err, "分配失败")
		return
	}
	response.Success(c, result)
}

// RemoveUsers 批量移除用户的角色
func (h *RoleHandler) RemoveUsers(c *gin.Context) {
	roleID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req BatchIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.service.RemoveRoleFromUsers(c.Request.Context(), roleID, req.IDs)
	if err != nil {
		response.HandleError(c, err, "移除失败")
		return
	}
	response.Success(c, result)
}
