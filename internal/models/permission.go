package models

// Permission 权限节点模型（菜单或操作权限，按parent_id组成树）
type Permission struct {
	BaseModel
	Code      string `gorm:"size:100;not null;index" json:"code"`     // 权限编码，非删除节点内唯一，如 "system:menu"
	Name      string `gorm:"size:100;not null" json:"name"`           // 权限名称，如 "菜单管理"
	Type      string `gorm:"size:20;not null;index" json:"type"`      // 节点类型：menu, action
	Path      string `gorm:"size:200" json:"path"`                    // 前端路由路径（菜单节点使用）
	ParentID  uint   `gorm:"not null;default:0;index" json:"parent_id"` // 父节点ID，0表示根节点
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`    // 同级排序值，升序
	Status    string `gorm:"size:20;default:'active'" json:"status"`  // 状态：active, inactive
	Deleted   bool   `gorm:"not null;default:false;index" json:"-"`   // 软删除标记
}

// TableName 表名
func (p *Permission) TableName() string {
	return "permissions"
}

// 权限节点类型常量
const (
	PermissionTypeMenu   = "menu"   // 菜单节点
	PermissionTypeAction = "action" // 操作权限节点
)

// IsUsable 是否可参与授权（未删除且启用）
func (p *Permission) IsUsable() bool {
	return !p.Deleted && p.Status == StatusActive
}
