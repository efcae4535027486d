package domain

import "time"

type Departement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:nom;size:100;uniqueIndex;not null" json:"nom"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"column:date_creation;autoCreateTime" json:"-"`
}

func (Departement) TableName() string { return "departements" }

type Poste struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"column:nom;size:100;not null;uniqueIndex:unique_poste_dept" json:"nom"`
	DepartementID uint         `gorm:"not null;uniqueIndex:unique_poste_dept" json:"departement_id"`
	Departement   *Departement `gorm:"foreignKey:DepartementID;constraint:OnDelete:CASCADE" json:"departement,omitempty"`
	Description   *string      `gorm:"type:text" json:"description,omitempty"`
	CreatedAt     time.Time    `gorm:"column:date_creation;autoCreateTime" json:"-"`
}

func (Poste) TableName() string { return "postes" }

// Equipe 经理与团队成员的一条关联
type Equipe struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ManagerID uint      `gorm:"not null;uniqueIndex:unique_manager_membre" json:"manager_id"`
	MemberID  uint      `gorm:"column:membre_id;not null;uniqueIndex:unique_manager_membre;index" json:"membre_id"`
	Manager   *User     `gorm:"foreignKey:ManagerID;constraint:OnDelete:CASCADE" json:"-"`
	Member    *User     `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"membre,omitempty"`
	AddedAt   time.Time `gorm:"column:date_ajout;autoCreateTime" json:"date_ajout"`
}

func (Equipe) TableName() string { return "equipes" }
