package domain

import "time"

type PointageStatus string

const (
	StatusOpen       PointageStatus = "en_cours"
	StatusClosed     PointageStatus = "termine"
	StatusIncomplete PointageStatus = "incomplet"
)

func (s PointageStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusIncomplete:
		return true
	}
	return false
}

// Pointage 一次工作时段（签到到签退）
type Pointage struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index:idx_user_date,priority:1" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Date          Date           `gorm:"column:date_pointage;not null;index:idx_user_date,priority:2;index:idx_date" json:"date_pointage"`
	CheckinAt     time.Time      `gorm:"not null" json:"checkin_at"`
	CheckoutAt    *time.Time     `json:"checkout_at"`
	Status        PointageStatus `gorm:"column:statut;size:16;not null;default:en_cours;index" json:"statut"`
	WorkedMinutes *int           `gorm:"column:duree_travail_minutes" json:"duree_travail_minutes"`
	Pauses        []Pause        `gorm:"foreignKey:PointageID;constraint:OnDelete:CASCADE" json:"pauses"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Pointage) TableName() string { return "pointages" }

// Pause 时段内的一次休息
type Pause struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PointageID      uint       `gorm:"not null;index:idx_pointage" json:"pointage_id"`
	StartAt         time.Time  `gorm:"column:debut_at;not null" json:"debut_at"`
	EndAt           *time.Time `gorm:"column:fin_at" json:"fin_at"`
	DurationMinutes *int       `gorm:"column:duree_minutes" json:"duree_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (Pause) TableName() string { return "pauses" }

// Minutes 向下取整的分钟数；负值保留
func Minutes(from, to time.Time) int {
	d := to.Sub(from)
	m := d / time.Minute
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return int(m)
}
