package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/pkg/utils"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	db := newTestDB(t)
	lookups := NewLookupService(db, nil, 0, nopLogger())
	svc := NewUserService(db, lookups, nil, nopLogger())
	svc.Clock = newTestClock().Clock()
	return svc, db
}

func personnelInput(email string) CreateUserInput {
	return CreateUserInput{
		LastName: "Martin", FirstName: "Paul", Email: email, Role: domain.RolePersonnel,
		DepartementName: "Informatique", PosteName: "Développeur", HireDate: "2023-09-01",
	}
}

func TestCreatePersonnelGeneratesPasswordAndCode(t *testing.T) {
	svc, db := newUserService(t)
	res, err := svc.Create(context.Background(), personnelInput("paul@bt.io"))
	require.NoError(t, err)

	assert.Len(t, res.TemporaryPassword, utils.TempPasswordLen)
	assert.Regexp(t, `^\d{4}$`, res.SecretCode)

	v, err := svc.Get(context.Background(), res.UserID)
	require.NoError(t, err)
	assert.True(t, v.MustChangePass)
	assert.True(t, utils.CheckPassword(res.TemporaryPassword, v.PasswordHash))
	require.NotNil(t, v.PosteName)
	assert.Equal(t, "Développeur", *v.PosteName)
	assert.Equal(t, "Informatique", *v.DepartementName)
	assert.Equal(t, domain.Date("2023-09-01"), *v.HireDate)

	var depts int64
	db.Model(&domain.Departement{}).Count(&depts)
	assert.EqualValues(t, 1, depts)
}

func TestCreateWithPasswordRespectsFlag(t *testing.T) {
	svc, _ := newUserService(t)
	in := personnelInput("p2@bt.io")
	in.Password = "chosen-password"
	res, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, res.TemporaryPassword)

	v, err := svc.Get(context.Background(), res.UserID)
	require.NoError(t, err)
	assert.False(t, v.MustChangePass)

	yes := true
	in = personnelInput("p3@bt.io")
	in.Password, in.MustChangePass = "chosen-password", &yes
	res, err = svc.Create(context.Background(), in)
	require.NoError(t, err)
	v, _ = svc.Get(context.Background(), res.UserID)
	assert.True(t, v.MustChangePass)
}

func TestCreatePersonnelWithoutHireDateRollsBack(t *testing.T) {
	svc, db := newUserService(t)
	in := personnelInput("nohire@bt.io")
	in.HireDate = ""

	_, err := svc.Create(context.Background(), in)
	assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)

	var n int64
	db.Model(&domain.User{}).Where("email = ?", "nohire@bt.io").Count(&n)
	assert.Zero(t, n)
	// 同一事务里创建的部门也回滚
	db.Model(&domain.Departement{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, db := newUserService(t)
	first, err := svc.Create(context.Background(), personnelInput("dup@bt.io"))
	require.NoError(t, err)

	in := personnelInput("dup@bt.io")
	in.LastName = "Autre"
	_, err = svc.Create(context.Background(), in)
	assert.True(t, domain.IsKind(err, domain.KindConflict), "got %v", err)

	var u domain.User
	require.NoError(t, db.First(&u, first.UserID).Error)
	assert.Equal(t, "Martin", u.LastName)
}

func TestSecretCodeScenario(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	a := personnelInput("a@bt.io")
	a.SecretCode = "1234"
	_, err := svc.Create(ctx, a)
	require.NoError(t, err)

	b := personnelInput("b@bt.io")
	b.SecretCode = "1234"
	_, err = svc.Create(ctx, b)
	assert.True(t, domain.IsKind(err, domain.KindConflict), "got %v", err)

	b.SecretCode = ""
	res, err := svc.Create(ctx, b)
	require.NoError(t, err)
	assert.NotEqual(t, "1234", res.SecretCode)

	c := personnelInput("c@bt.io")
	c.SecretCode = "12a4"
	_, err = svc.Create(ctx, c)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateUserInput{Email: "x@bt.io", Role: domain.RolePersonnel})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	admin := personnelInput("admin@bt.io")
	admin.Role = domain.RoleAdmin
	_, err = svc.Create(ctx, admin)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	st := CreateUserInput{LastName: "S", FirstName: "T", Email: "s@bt.io", Role: domain.RoleStagiaire, StartDate: "2024-02-01"}
	_, err = svc.Create(ctx, st)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	st.EndDate = "2024-01-01"
	_, err = svc.Create(ctx, st)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	st.EndDate = "2024-07-31"
	res, err := svc.Create(ctx, st)
	require.NoError(t, err)
	v, _ := svc.Get(ctx, res.UserID)
	assert.Equal(t, domain.Date("2024-07-31"), *v.EndDate)
}

func TestCreateManagerGetsAppointment(t *testing.T) {
	svc, _ := newUserService(t)
	res, err := svc.Create(context.Background(), CreateUserInput{
		LastName: "Chef", FirstName: "Anne", Email: "anne@bt.io", Role: domain.RoleManager,
	})
	require.NoError(t, err)
	v, err := svc.Get(context.Background(), res.UserID)
	require.NoError(t, err)
	require.NotNil(t, v.AppointedDate)
	assert.Equal(t, domain.Date("2024-03-11"), *v.AppointedDate)
}

func TestUpdateRolePersonnelToManager(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, personnelInput("switch@bt.io"))
	require.NoError(t, err)

	role := domain.RoleManager
	v, err := svc.Update(ctx, res.UserID, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, v.Role)
	assert.NotNil(t, v.AppointedDate)

	var n int64
	db.Model(&domain.Personnel{}).Where("user_id = ?", res.UserID).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.Manager{}).Where("user_id = ?", res.UserID).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestUpdateRoleToStagiaireWithoutDatesSkipsDetail(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, personnelInput("gap@bt.io"))
	require.NoError(t, err)

	role := domain.RoleStagiaire
	v, err := svc.Update(ctx, res.UserID, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStagiaire, v.Role)

	var n int64
	db.Model(&domain.Stagiaire{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.Personnel{}).Count(&n)
	assert.Zero(t, n)
}

func TestUpdateStagiaireDatesKeepOrder(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, CreateUserInput{
		LastName: "Leroy", FirstName: "Emma", Email: "intern@bt.io", Role: domain.RoleStagiaire,
		StartDate: "2024-01-10", EndDate: "2024-06-10",
	})
	require.NoError(t, err)

	early := "2023-01-01"
	_, err = svc.Update(ctx, res.UserID, UpdateUserInput{EndDate: &early})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	late := "2024-07-01"
	_, err = svc.Update(ctx, res.UserID, UpdateUserInput{StartDate: &late})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	var st domain.Stagiaire
	require.NoError(t, db.First(&st, "user_id = ?", res.UserID).Error)
	assert.Equal(t, domain.Date("2024-01-10"), st.StartDate)
	assert.Equal(t, domain.Date("2024-06-10"), st.EndDate)

	end := "2024-09-30"
	_, err = svc.Update(ctx, res.UserID, UpdateUserInput{EndDate: &end})
	require.NoError(t, err)
	require.NoError(t, db.First(&st, "user_id = ?", res.UserID).Error)
	assert.Equal(t, domain.Date("2024-09-30"), st.EndDate)
}

func TestUpdateRoleToPersonnelWithoutHireDateCreatesNoLookups(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, CreateUserInput{
		LastName: "Petit", FirstName: "Luc", Email: "boss@bt.io", Role: domain.RoleManager,
	})
	require.NoError(t, err)

	role, dept, poste := domain.RolePersonnel, "Logistique", "Magasinier"
	v, err := svc.Update(ctx, res.UserID, UpdateUserInput{Role: &role, DepartementName: &dept, PosteName: &poste})
	require.NoError(t, err)
	assert.Equal(t, domain.RolePersonnel, v.Role)

	var n int64
	db.Model(&domain.Departement{}).Where("nom = ?", dept).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.Poste{}).Where("nom = ?", poste).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.Personnel{}).Where("user_id = ?", res.UserID).Count(&n)
	assert.Zero(t, n)
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, personnelInput("part@bt.io"))
	require.NoError(t, err)
	other, err := svc.Create(ctx, personnelInput("other@bt.io"))
	require.NoError(t, err)

	name, hire, salary := "Durand", "2022-01-15", 2500.0
	v, err := svc.Update(ctx, res.UserID, UpdateUserInput{LastName: &name, HireDate: &hire, Salary: &salary})
	require.NoError(t, err)
	assert.Equal(t, "Durand", v.LastName)
	assert.Equal(t, "Paul", v.FirstName)
	assert.Equal(t, domain.Date("2022-01-15"), *v.HireDate)
	assert.InDelta(t, 2500.0, *v.Salary, 0.001)

	code := other.SecretCode
	_, err = svc.Update(ctx, res.UserID, UpdateUserInput{SecretCode: &code})
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	email := "other@bt.io"
	_, err = svc.Update(ctx, res.UserID, UpdateUserInput{Email: &email})
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	pw := "new-password-1"
	v, err = svc.Update(ctx, res.UserID, UpdateUserInput{Password: &pw})
	require.NoError(t, err)
	assert.True(t, v.MustChangePass)
	assert.True(t, utils.CheckPassword(pw, v.PasswordHash))

	_, err = svc.Update(ctx, 9999, UpdateUserInput{LastName: &name})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestListScopesManagerToTeam(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	mgr := seedUser(t, db, domain.RoleManager, "mgr@bt.io", "5000")
	member := seedUser(t, db, domain.RolePersonnel, "member@bt.io", "5001")
	seedUser(t, db, domain.RolePersonnel, "stranger@bt.io", "5002")
	require.NoError(t, db.Create(&domain.Equipe{ManagerID: mgr.ID, MemberID: member.ID}).Error)

	views, err := svc.List(ctx, identity(mgr), UserQuery{})
	require.NoError(t, err)
	emails := make([]string, 0, len(views))
	for _, v := range views {
		emails = append(emails, v.Email)
	}
	assert.ElementsMatch(t, []string{"mgr@bt.io", "member@bt.io"}, emails)

	admin := seedUser(t, db, domain.RoleAdmin, "root@bt.io", "5003")
	views, err = svc.List(ctx, identity(admin), UserQuery{Search: "strang"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "stranger@bt.io", views[0].Email)

	inactive := false
	views, err = svc.List(ctx, identity(admin), UserQuery{Active: &inactive})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDeleteCascades(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	res, err := svc.Create(ctx, personnelInput("gone@bt.io"))
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.Pointage{UserID: res.UserID, Date: "2024-03-11", Status: domain.StatusOpen}).Error)

	require.NoError(t, svc.Delete(ctx, res.UserID))
	var n int64
	db.Model(&domain.Personnel{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.Pointage{}).Count(&n)
	assert.Zero(t, n)

	assert.True(t, domain.IsKind(svc.Delete(ctx, res.UserID), domain.KindNotFound))
}
