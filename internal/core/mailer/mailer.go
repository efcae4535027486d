package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	//go:embed templates/*.html
	templatesFS embed.FS

	templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

type Message struct {
	To       string
	ToName   string
	Subject  string
	HTML     string
	Text     string
	Template string // 仅用于日志
}

// Sender 发送一封邮件；实现需并发安全
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Recipient 账户类模板所需的数据
type Recipient struct {
	Email     string
	LastName  string
	FirstName string
}

type Dispatcher struct {
	sender   Sender
	log      *zap.Logger
	loginURL string
	timeout  time.Duration
}

func NewDispatcher(s Sender, l *zap.Logger, frontendURL string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		sender:   s,
		log:      l.Named("mailer"),
		loginURL: strings.TrimRight(frontendURL, "/") + "/login",
		timeout:  timeout,
	}
}

func (d *Dispatcher) WelcomeMessage(r Recipient, tempPassword, secretCode string) (Message, error) {
	return d.render("welcome.html", r, "Bienvenue sur BubbleTech Pointage", map[string]any{
		"Password":   tempPassword,
		"SecretCode": secretCode,
	})
}

func (d *Dispatcher) PasswordResetMessage(r Recipient, newPassword string) (Message, error) {
	return d.render("password_reset.html", r, "Réinitialisation de votre mot de passe", map[string]any{
		"Password": newPassword,
	})
}

func (d *Dispatcher) render(name string, r Recipient, subject string, extra map[string]any) (Message, error) {
	data := map[string]any{
		"Email":     r.Email,
		"LastName":  r.LastName,
		"FirstName": r.FirstName,
		"LoginURL":  d.loginURL,
	}
	for k, v := range extra {
		data[k] = v
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	html := body.String()
	return Message{
		To:       r.Email,
		ToName:   strings.TrimSpace(r.FirstName + " " + r.LastName),
		Subject:  subject,
		HTML:     html,
		Text:     stripHTML(html),
		Template: name,
	}, nil
}

// Welcome 渲染欢迎邮件并异步发送；d 为 nil 时什么都不做
func (d *Dispatcher) Welcome(r Recipient, tempPassword, secretCode string) {
	if d == nil {
		return
	}
	m, err := d.WelcomeMessage(r, tempPassword, secretCode)
	if err != nil {
		d.log.Error("render welcome mail", zap.Error(err))
		return
	}
	d.SendAsync(m)
}

func (d *Dispatcher) PasswordReset(r Recipient, newPassword string) {
	if d == nil {
		return
	}
	m, err := d.PasswordResetMessage(r, newPassword)
	if err != nil {
		d.log.Error("render password reset mail", zap.Error(err))
		return
	}
	d.SendAsync(m)
}

// SendAsync 发送不阻塞 HTTP 响应；失败只记日志
func (d *Dispatcher) SendAsync(m Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.sender.Send(ctx, m); err != nil {
			d.log.Error("send mail failed", zap.String("to", m.To), zap.String("template", m.Template), zap.Error(err))
			return
		}
		d.log.Info("mail sent", zap.String("to", m.To), zap.String("template", m.Template))
	}()
}

func stripHTML(s string) string {
	if i := strings.Index(s, "</head>"); i >= 0 {
		s = s[i+len("</head>"):]
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(tagRe.ReplaceAllString(s, " "), " "))
}

// LogSender 开发环境：只打印，不真正发送
type LogSender struct{ Log *zap.Logger }

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Log.Info("mail (log only)", zap.String("to", m.To), zap.String("subject", m.Subject), zap.String("text", m.Text))
	return nil
}
