package mailer

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yassin-houari/bubbletech-pointage/internal/core/config"
)

// FromConfig 根据 mail.provider 选择发送实现
func FromConfig(c config.Mail, l *zap.Logger) (Sender, error) {
	timeout := time.Duration(c.TimeoutSec) * time.Second
	switch c.Provider {
	case "", "log":
		return LogSender{Log: l.Named("mailer")}, nil
	case "brevo":
		return &BrevoSender{
			APIKey:      c.BrevoAPIKey,
			URL:         c.BrevoURL,
			SenderEmail: c.SenderEmail,
			SenderName:  c.SenderName,
			Client:      &http.Client{Timeout: timeout},
		}, nil
	case "smtp":
		return &SMTPSender{
			Host:        c.SMTP.Host,
			Port:        c.SMTP.Port,
			Username:    c.SMTP.Username,
			Password:    c.SMTP.Password,
			SenderEmail: c.SenderEmail,
			SenderName:  c.SenderName,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", c.Provider)
	}
}
