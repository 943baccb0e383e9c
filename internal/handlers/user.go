package handlers

import (
	"iams/internal/services"
	"iams/pkg/pagination"
	"iams/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
	Name     string `json:"name" binding:"max=100"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UserHandler struct {
	userService *services.UserService
	roleService *services.RoleService
}

func NewUserHandler(userService *services.UserService, roleService *services.RoleService) *UserHandler {
	return &UserHandler{
		userService: userService,
		roleService: roleService,
	}
}

// ========== 基础CRUD方法 ==========

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req.Username, req.Password, req.Email, req.Name)
	if err != nil {
		response.HandleError(c, err, "创建失败")
		return
	}
	response.Success(c, user)
}

// GetAll 获取用户列表（分页）
func (h *UserHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	status := c.Query("status")

	users, total, err := h.userService.GetWithPage(c.Request.Context(), status, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, users, pageInfo)
}

// GetByID 获取用户
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, "查询失败")
		return
	}
	response.Success(c, user)
}

// SetStatus 设置用户状态
func (h *UserHandler) SetStatus(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	if err := h.userService.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		response.HandleError(c, err, "状态更新失败")
		return
	}
	response.SuccessWithMessage(c, "状态更新成功", nil)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		response.HandleError(c, err, "删除失败")
		return
	}
	response.SuccessWithMessage(c, "删除成功", nil)
}

// ========== 角色管理 ==========

// GetRoles 获取用户的角色
func (h *UserHandler) GetRoles(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	roles, err := h.userService.GetUserRoles(c.Request.Context(), id)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, roles)
}

// GetPermissions 获取用户聚合后的权限
func (h *UserHandler) GetPermissions(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	permissions, err := h.userService.GetUserPermissions(c.Request.Context(), id)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}
	response.Success(c, permissions)
}

// AddRole 为用户分配单个角色
func (h *UserHandler) AddRole(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}
	roleID, err := parseUintParam(c, "role_id")
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	if err := h.roleService.AssignRoleToUser(c.Request.Context(), userID, roleID); err != nil {
		response.HandleError(c, err, "分配失败")
		return
	}
	response.SuccessWithMessage(c, "分配成功", nil)
}

// RemoveRole 移除用户的单个角色
func (h *UserHandler) RemoveRole(c *gin.Context) {
	userID, err := parseIDParam(c)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}
	roleID, err := parseUintParam(c, "role_id")
	if err != nil {
		response.BadRequest(c, "角色ID格式错误")
		return
	}

	if err := h.roleService.RemoveRoleFromUser(c.Request.Context(), userID, roleID); err != nil {
		response.HandleError(c, err, "移除失败")
		return
	}
	response.SuccessWithMessage(c, "移除成功", nil)
}
