package domain

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RolePersonnel Role = "personnel"
	RoleStagiaire Role = "stagiaire"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RolePersonnel, RoleStagiaire:
		return true
	}
	return false
}

// Staff 只能看到自己数据的角色
func (r Role) Staff() bool { return r == RolePersonnel || r == RoleStagiaire }

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LastName       string    `gorm:"column:nom;size:100;not null" json:"nom"`
	FirstName      string    `gorm:"column:prenom;size:100;not null" json:"prenom"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password;size:255;not null" json:"-"`
	Role           Role      `gorm:"size:16;not null;index" json:"role"`
	SecretCode     string    `gorm:"column:code_secret;type:char(4);uniqueIndex;not null" json:"code_secret"`
	Active         bool      `gorm:"column:actif;not null;default:true" json:"actif"`
	MustChangePass bool      `gorm:"column:doit_changer_mdp;not null;default:false" json:"doit_changer_mdp"`
	CreatedAt      time.Time `gorm:"column:date_creation;autoCreateTime" json:"date_creation"`
	UpdatedAt      time.Time `gorm:"column:date_modification;autoUpdateTime" json:"date_modification"`

	Personnel *Personnel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Stagiaire *Stagiaire `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Manager   *Manager   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// Detail 返回当前角色对应的详情行；未加载或不存在时为 nil
func (u *User) Detail() RoleDetail {
	switch u.Role {
	case RolePersonnel:
		if u.Personnel != nil {
			return u.Personnel
		}
	case RoleStagiaire:
		if u.Stagiaire != nil {
			return u.Stagiaire
		}
	case RoleManager:
		if u.Manager != nil {
			return u.Manager
		}
	}
	return nil
}

// RoleDetail 取值为 *Personnel、*Stagiaire 或 *Manager
type RoleDetail interface {
	DetailRole() Role
}

type Personnel struct {
	UserID   uint     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PosteID  uint     `gorm:"not null;index" json:"poste_id"`
	Poste    *Poste   `gorm:"foreignKey:PosteID;constraint:OnDelete:RESTRICT" json:"poste,omitempty"`
	HireDate Date     `gorm:"column:date_embauche;not null" json:"date_embauche"`
	Salary   *float64 `gorm:"column:salaire;type:decimal(10,2)" json:"salaire"`
}

func (Personnel) TableName() string { return "personnel" }
func (*Personnel) DetailRole() Role { return RolePersonnel }

type Stagiaire struct {
	UserID       uint  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	StartDate    Date  `gorm:"column:date_debut;not null" json:"date_debut"`
	EndDate      Date  `gorm:"column:date_fin;not null" json:"date_fin"`
	SupervisorID *uint `gorm:"column:encadrant_id;index" json:"encadrant_id"`
}

func (Stagiaire) TableName() string { return "stagiaires" }
func (*Stagiaire) DetailRole() Role { return RoleStagiaire }

type Manager struct {
	UserID        uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	AppointedDate Date `gorm:"column:date_nomination;not null" json:"date_nomination"`
}

func (Manager) TableName() string { return "managers" }
func (*Manager) DetailRole() Role { return RoleManager }
