package domain

import "time"

type NotificationType string

const (
	NotifInfo    NotificationType = "info"
	NotifWarning NotificationType = "warning"
	NotifSuccess NotificationType = "success"
	NotifError   NotificationType = "error"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifInfo, NotifWarning, NotifSuccess, NotifError:
		return true
	}
	return false
}

type Notification struct {
	ID      uint             `gorm:"primaryKey" json:"id"`
	UserID  uint             `gorm:"not null;index:idx_notif_user_lu,priority:1" json:"user_id"`
	User    *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title   string           `gorm:"column:titre;size:255;not null" json:"titre"`
	Message string           `gorm:"type:text;not null" json:"message"`
	Type    NotificationType `gorm:"size:16;not null;default:info" json:"type"`
	SentAt  time.Time        `gorm:"column:date_envoi;autoCreateTime;index:idx_notif_date" json:"date_envoi"`
	Read    bool             `gorm:"column:lu;not null;default:false;index:idx_notif_user_lu,priority:2" json:"lu"`
	ReadAt  *time.Time       `gorm:"column:date_lecture" json:"date_lecture"`
}

func (Notification) TableName() string { return "notifications" }
