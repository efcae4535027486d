package service

import "github.com/yassin-houari/bubbletech-pointage/internal/domain"

// UserView 用户 + 角色详情扁平化输出（不含密码）
type UserView struct {
	*domain.User

	PosteID         *uint        `json:"poste_id,omitempty"`
	PosteName       *string      `json:"poste_nom,omitempty"`
	DepartementID   *uint        `json:"departement_id,omitempty"`
	DepartementName *string      `json:"departement_nom,omitempty"`
	HireDate        *domain.Date `json:"date_embauche,omitempty"`
	Salary          *float64     `json:"salaire,omitempty"`

	StartDate    *domain.Date `json:"date_debut,omitempty"`
	EndDate      *domain.Date `json:"date_fin,omitempty"`
	SupervisorID *uint        `json:"encadrant_id,omitempty"`

	AppointedDate *domain.Date `json:"date_nomination,omitempty"`
}

func ViewOf(u *domain.User) UserView {
	v := UserView{User: u}
	switch d := u.Detail().(type) {
	case *domain.Personnel:
		v.PosteID, v.HireDate, v.Salary = &d.PosteID, &d.HireDate, d.Salary
		if d.Poste != nil {
			v.PosteName = &d.Poste.Name
			v.DepartementID = &d.Poste.DepartementID
			if d.Poste.Departement != nil {
				v.DepartementName = &d.Poste.Departement.Name
			}
		}
	case *domain.Stagiaire:
		v.StartDate, v.EndDate, v.SupervisorID = &d.StartDate, &d.EndDate, d.SupervisorID
	case *domain.Manager:
		v.AppointedDate = &d.AppointedDate
	}
	return v
}

func viewsOf(users []domain.User) []UserView {
	out := make([]UserView, len(users))
	for i := range users {
		out[i] = ViewOf(&users[i])
	}
	return out
}
