package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/auth"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/config"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/database"
	"github.com/yassin-houari/bubbletech-pointage/internal/core/mailer"
	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
	"github.com/yassin-houari/bubbletech-pointage/internal/service"
	"github.com/yassin-houari/bubbletech-pointage/pkg/utils"
)

type testApp struct {
	t   *testing.T
	db  *gorm.DB
	eng *gin.Engine
}

func newTestApp(t *testing.T, staticDir string) *testApp {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		LogLevel:     "silent",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	l := zap.NewNop()
	cfg := &config.Config{
		App: config.App{Env: "test", StaticDir: staticDir, CORSOrigins: []string{"http://localhost:3000"}},
		Security: config.Security{
			RateLimitRPS: 1000, RateLimitBurst: 1000, MaxConcurrent: 10,
			MaxBodyBytes: 1 << 20, RequestTimeoutSec: 5, LoginAttempts: 5, LoginWindowMin: 15,
		},
	}
	j := &auth.JWTer{Secret: []byte(strings.Repeat("k", 32)), Issuer: "test", TTL: time.Hour}
	mail := mailer.NewDispatcher(mailer.LogSender{Log: l}, l, "http://localhost:3000", time.Second)
	lookups := service.NewLookupService(db, nil, 0, l)

	eng := NewAPIEngine(Deps{
		Config:        cfg,
		Log:           l,
		JWT:           j,
		Auth:          service.NewAuthService(db, j, mail, l),
		Users:         service.NewUserService(db, lookups, mail, l),
		Lookups:       lookups,
		Teams:         service.NewTeamService(db),
		Pointages:     service.NewPointageService(db, l),
		Reports:       service.NewReportService(db),
		Notifications: service.NewNotificationService(db),
		Audit:         service.NewAuditService(db),
		Ping:          func(ctx context.Context) error { return database.Ping(ctx, db) },
	})
	return &testApp{t: t, db: db, eng: eng}
}

func (a *testApp) seed(role domain.Role, email, code string) *domain.User {
	a.t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(a.t, err)
	u := &domain.User{
		LastName: "Test", FirstName: email, Email: email, PasswordHash: hash,
		Role: role, SecretCode: code, Active: true,
	}
	require.NoError(a.t, a.db.Create(u).Error)
	return u
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.eng.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testApp) login(email, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	body := decode(a.t, w)
	require.Equal(a.t, true, body["success"])
	return body["token"].(string)
}

func TestHealthAndNotFound(t *testing.T) {
	app := newTestApp(t, "")

	w := app.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = app.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route non trouvée", decode(t, w)["message"])

	w = app.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAuthGate(t *testing.T) {
	app := newTestApp(t, "")
	app.seed(domain.RoleAdmin, "admin@bubbletech.be", "1111")
	staff := app.seed(domain.RolePersonnel, "staff@bubbletech.be", "2222")

	w := app.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@bubbletech.be", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = app.do(http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := app.login("staff@bubbletech.be", "password123")
	w = app.do(http.MethodGet, "/api/users", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/auth/profile", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, float64(staff.ID), user["id"])
	assert.NotContains(t, w.Body.String(), "password")

	w = app.do(http.MethodPost, "/api/auth/login-code", "", gin.H{"code_secret": "2222"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = app.do(http.MethodPost, "/api/auth/login-code", tok, gin.H{"code_secret": "2222"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff@bubbletech.be", decode(t, w)["user"].(map[string]any)["email"])

	w = app.do(http.MethodPost, "/api/auth/change-password", tok, gin.H{"oldPassword": "password123", "newPassword": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodPost, "/api/auth/change-password", tok, gin.H{"oldPassword": "password123", "newPassword": "longenough1"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodPost, "/api/auth/request-password-reset", "", gin.H{"email": "ghost@bubbletech.be"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestLoginIsRateLimited(t *testing.T) {
	app := newTestApp(t, "")
	for i := 0; i < 5; i++ {
		w := app.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "x@y.be", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := app.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "x@y.be", "password": "nope"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestUserLifecycleAndPointage(t *testing.T) {
	app := newTestApp(t, "")
	app.seed(domain.RoleAdmin, "admin@bubbletech.be", "1111")
	admin := app.login("admin@bubbletech.be", "password123")

	// 新建部门：第一次 201，第二次 200
	w := app.do(http.MethodPost, "/api/departements", admin, gin.H{"nom": "Production"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["created"])
	w = app.do(http.MethodPost, "/api/departements", admin, gin.H{"nom": "Production"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["created"])

	w = app.do(http.MethodPost, "/api/users", admin, gin.H{
		"nom": "Martin", "prenom": "Lea", "email": "lea@bubbletech.be", "role": "personnel",
		"departement_nom": "Production", "poste_nom": "Opératrice", "date_embauche": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	tmp := created["temporaryPassword"].(string)
	assert.Len(t, tmp, utils.TempPasswordLen)
	assert.Regexp(t, `^\d{4}$`, created["codeSecret"])
	leaID := uint(created["userId"].(float64))

	w = app.do(http.MethodPost, "/api/users", admin, gin.H{
		"nom": "Autre", "prenom": "Lea", "email": "lea@bubbletech.be", "role": "stagiaire",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodGet, "/api/users?role=personnel", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Equal(t, float64(1), list["count"])
	first := list["users"].([]any)[0].(map[string]any)
	assert.Equal(t, "Opératrice", first["poste_nom"])
	assert.Equal(t, "Production", first["departement_nom"])

	w = app.do(http.MethodPut, "/api/users/"+itoa(leaID), admin, gin.H{"prenom": "Léa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Léa", decode(t, w)["user"].(map[string]any)["prenom"])

	w = app.do(http.MethodGet, "/api/users/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodGet, "/api/users/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 员工打卡流程
	lea := app.login("lea@bubbletech.be", tmp)
	w = app.do(http.MethodPost, "/api/pointages/checkin", lea, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "en_cours", decode(t, w)["pointage"].(map[string]any)["statut"])
	w = app.do(http.MethodPost, "/api/pointages/checkin", lea, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodPost, "/api/pointages/break/end", lea, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodPost, "/api/pointages/break/start", lea, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodPost, "/api/pointages/break/end", lea, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 员工不能代他人打卡
	w = app.do(http.MethodPost, "/api/pointages/checkout", lea, gin.H{"user_id": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(http.MethodPost, "/api/pointages/checkout", lea, gin.H{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "termine", decode(t, w)["pointage"].(map[string]any)["statut"])

	w = app.do(http.MethodGet, "/api/pointages", lea, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)
	assert.Equal(t, float64(1), rows["count"])
	assert.Len(t, rows["pointages"].([]any)[0].(map[string]any)["pauses"], 1)

	w = app.do(http.MethodGet, "/api/pointages/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["stats"].(map[string]any)["pointages_termines"])

	w = app.do(http.MethodGet, "/api/pointages?statut=bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/pointages/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxMime, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	sheetRows, err := f.GetRows("Pointages")
	require.NoError(t, err)
	assert.Len(t, sheetRows, 2)

	// 写操作会记审计日志，密码不落库
	var logs []domain.AuditLog
	require.NoError(t, app.db.Order("id").Find(&logs).Error)
	require.NotEmpty(t, logs)
	var createLog *domain.AuditLog
	for i := range logs {
		if logs[i].Action == "POST /api/users" {
			createLog = &logs[i]
		}
		assert.NotContains(t, logs[i].Details, tmp)
	}
	require.NotNil(t, createLog)
	assert.Contains(t, createLog.Details, "lea@bubbletech.be")

	w = app.do(http.MethodDelete, "/api/users/"+itoa(leaID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodDelete, "/api/users/"+itoa(leaID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeamsAndNotifications(t *testing.T) {
	app := newTestApp(t, "")
	app.seed(domain.RoleAdmin, "admin@bubbletech.be", "1111")
	mgr := app.seed(domain.RoleManager, "boss@bubbletech.be", "2222")
	staff := app.seed(domain.RolePersonnel, "staff@bubbletech.be", "3333")
	admin := app.login("admin@bubbletech.be", "password123")
	boss := app.login("boss@bubbletech.be", "password123")
	worker := app.login("staff@bubbletech.be", "password123")

	w := app.do(http.MethodPost, "/api/equipes", admin, gin.H{"manager_id": mgr.ID, "membre_id": staff.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = app.do(http.MethodPost, "/api/equipes", admin, gin.H{"manager_id": mgr.ID, "membre_id": staff.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = app.do(http.MethodPost, "/api/equipes", boss, gin.H{"manager_id": mgr.ID, "membre_id": staff.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/equipes", boss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	// 经理代团队成员打卡
	w = app.do(http.MethodPost, "/api/pointages/checkin", boss, gin.H{"user_id": staff.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(staff.ID), decode(t, w)["pointage"].(map[string]any)["user_id"])

	w = app.do(http.MethodDelete, "/api/equipes/"+itoa(mgr.ID)+"/"+itoa(staff.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodDelete, "/api/equipes/"+itoa(mgr.ID)+"/"+itoa(staff.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodPost, "/api/notifications", admin, gin.H{"user_id": staff.ID, "titre": "Rappel", "message": "Pensez à pointer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	nid := uint(decode(t, w)["notification"].(map[string]any)["id"].(float64))
	w = app.do(http.MethodPost, "/api/notifications", worker, gin.H{"user_id": staff.ID, "titre": "x", "message": "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPut, "/api/notifications/"+itoa(nid)+"/read", boss, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(http.MethodGet, "/api/notifications?non_lues=true", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
	w = app.do(http.MethodPut, "/api/notifications/"+itoa(nid)+"/read", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/notifications?non_lues=true", worker, nil)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	app := newTestApp(t, dir)

	w := app.do(http.MethodGet, "/app.js", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = app.do(http.MethodGet, "/personnel/12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "spa")

	w = app.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
