package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/repo"
)

type PointageQuery struct {
	UserID uint
	From   string
	To     string
	Status domain.PointageStatus
}

// PointageRow 打卡记录 + 所属用户的展示字段
type PointageRow struct {
	domain.Pointage
	LastName  string      `json:"nom"`
	FirstName string      `json:"prenom"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

type ReportService struct{ db *gorm.DB }

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{db: db} }

func (q PointageQuery) filter(caller auth.Identity) (repo.PointageFilter, error) {
	f := repo.PointageFilter{Caller: caller.ID, UserID: q.UserID, Status: q.Status}
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleManager:
		f.ManagerScope = true
	default:
		f.SelfOnly = true
	}
	for _, d := range []struct {
		name string
		val  string
		dst  *string
	}{{"date_debut", q.From, &f.From}, {"date_fin", q.To, &f.To}} {
		if d.val == "" {
			continue
		}
		parsed, err := domain.ParseDate(d.val)
		if err != nil {
			return f, domain.Validation("%s: %v", d.name, err)
		}
		*d.dst = string(parsed)
	}
	if q.Status != "" && !q.Status.Valid() {
		return f, domain.Validation("statut invalide")
	}
	return f, nil
}

func (s *ReportService) List(ctx context.Context, caller auth.Identity, q PointageQuery) ([]PointageRow, error) {
	f, err := q.filter(caller)
	if err != nil {
		return nil, err
	}
	rows, err := repo.NewPointageRepo(s.db.WithContext(ctx)).List(f)
	if err != nil {
		return nil, dbError("list pointages", err)
	}
	out := make([]PointageRow, len(rows))
	for i := range rows {
		p := rows[i]
		if p.Pauses == nil {
			p.Pauses = []domain.Pause{}
		}
		out[i] = PointageRow{Pointage: p}
		if p.User != nil {
			out[i].LastName, out[i].FirstName = p.User.LastName, p.User.FirstName
			out[i].Email, out[i].Role = p.User.Email, p.User.Role
		}
	}
	return out, nil
}

// Stats 统计按状态分组计数，因此忽略 statut 过滤
func (s *ReportService) Stats(ctx context.Context, caller auth.Identity, q PointageQuery) (*repo.PointageStats, error) {
	q.Status = ""
	f, err := q.filter(caller)
	if err != nil {
		return nil, err
	}
	st, err := repo.NewPointageRepo(s.db.WithContext(ctx)).Stats(f)
	if err != nil {
		return nil, dbError("pointage stats", err)
	}
	return &st, nil
}

const (
	sheetPointages = "Pointages"
	sheetStats     = "Statistiques"
	exportTimeFmt  = "2006-01-02 15:04"
)

var exportHeader = []any{
	"ID", "Nom", "Prénom", "Email", "Date", "Arrivée", "Départ", "Statut", "Travail (min)", "Pauses (min)", "Nb pauses",
}

// Export 把 List 的结果写成 xlsx
func (s *ReportService) Export(ctx context.Context, caller auth.Identity, q PointageQuery, w io.Writer) error {
	rows, err := s.List(ctx, caller, q)
	if err != nil {
		return err
	}
	st, err := s.Stats(ctx, caller, q)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetPointages); err != nil {
		return domain.Internal("export", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return domain.Internal("export", err)
	}

	if err := f.SetSheetRow(sheetPointages, "A1", &exportHeader); err != nil {
		return domain.Internal("export", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	_ = f.SetCellStyle(sheetPointages, "A1", last, bold)
	_ = f.SetColWidth(sheetPointages, "B", "D", 22)
	_ = f.SetColWidth(sheetPointages, "E", "G", 18)

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetPointages, cell, exportRow(r)); err != nil {
			return domain.Internal("export", err)
		}
	}

	if _, err := f.NewSheet(sheetStats); err != nil {
		return domain.Internal("export", err)
	}
	statRows := [][]any{
		{"Total", st.Total},
		{"Terminés", st.Closed},
		{"En cours", st.Open},
		{"Incomplets", st.Incomplete},
		{"Durée moyenne (min)", floatOrEmpty(st.AvgMinutes)},
		{"Durée totale (min)", floatOrEmpty(st.TotalMinutes)},
	}
	for i, r := range statRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetStats, cell, &r); err != nil {
			return domain.Internal("export", err)
		}
	}
	_ = f.SetCellStyle(sheetStats, "A1", fmt.Sprintf("A%d", len(statRows)), bold)
	_ = f.SetColWidth(sheetStats, "A", "A", 24)

	if err := f.Write(w); err != nil {
		return domain.Internal("export", err)
	}
	return nil
}

func exportRow(r PointageRow) *[]any {
	breaks, pauseMin := len(r.Pauses), 0
	for _, p := range r.Pauses {
		if p.DurationMinutes != nil {
			pauseMin += *p.DurationMinutes
		}
	}
	row := []any{
		r.ID, r.LastName, r.FirstName, r.Email, string(r.Date),
		r.CheckinAt.Format(exportTimeFmt), timeOrEmpty(r.CheckoutAt), string(r.Status),
		intOrEmpty(r.WorkedMinutes), pauseMin, breaks,
	}
	return &row
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeFmt)
}

func intOrEmpty(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func floatOrEmpty(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}
