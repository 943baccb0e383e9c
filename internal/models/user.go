package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"not null;size:50;index"`
	Email        string     `json:"email" gorm:"size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"size:100"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	Deleted      bool       `json:"-" gorm:"not null;default:false;index"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// 多对多关联
	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// IsUsable 是否可参与授权（未删除且启用）
func (u *User) IsUsable() bool {
	return !u.Deleted && u.Status == StatusActive
}

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// UserRole 用户角色关联表
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_role,unique" json:"user_id"`
	RoleID    uint      `gorm:"not null;index:idx_user_role,unique" json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名
func (ur *UserRole) TableName() string {
	return "user_roles"
}
