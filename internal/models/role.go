package models

import "time"

// Role 角色模型
type Role struct {
	BaseModel
	Code        string `gorm:"size:100;not null;index" json:"code"`    // 角色代码，如 "admin"
	Name        string `gorm:"size:100;not null" json:"name"`          // 角色名称，如 "系统管理员"
	Description string `gorm:"size:255" json:"description"`            // 角色描述
	Status      string `gorm:"size:20;default:'active'" json:"status"` // 状态：active, inactive
	Deleted     bool   `gorm:"not null;default:false;index" json:"-"`  // 软删除标记

	// 关联关系
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// TableName 表名
func (r *Role) TableName() string {
	return "roles"
}

// IsUsable 是否可参与授权（未删除且启用）
func (r *Role) IsUsable() bool {
	return !r.Deleted && r.Status == StatusActive
}

// RolePermission 角色权限关联表
type RolePermission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RoleID       uint      `gorm:"not null;index:idx_role_permission,unique" json:"role_id"`
	PermissionID uint      `gorm:"not null;index:idx_role_permission,unique" json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 表名
func (rp *RolePermission) TableName() string {
	return "role_permissions"
}
