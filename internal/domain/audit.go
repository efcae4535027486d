package domain

import "time"

// AuditLog 只追加，服务内不回读
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index:idx_log_user" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	Action    string    `gorm:"size:100;not null;index:idx_log_action" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"type:text" json:"user_agent"`
	At        time.Time `gorm:"column:date_action;autoCreateTime;index:idx_log_date" json:"date_action"`
}

func (AuditLog) TableName() string { return "logs" }
