package models

// SystemConfig 系统配置项
type SystemConfig struct {
	BaseModel
	ConfigKey   string `gorm:"size:100;not null;uniqueIndex" json:"config_key"` // 配置键
	ConfigValue string `gorm:"size:1000" json:"config_value"`                   // 配置值
	Description string `gorm:"size:255" json:"description"`                     // 配置说明
}

// TableName 表名
func (s *SystemConfig) TableName() string {
	return "system_configs"
}
