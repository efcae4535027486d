package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

type BrevoSender struct {
	APIKey      string
	URL         string
	SenderEmail string
	SenderName  string
	Client      *http.Client
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

func (s *BrevoSender) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(brevoPayload{
		Sender:      brevoAddress{Email: s.SenderEmail, Name: s.SenderName},
		To:          []brevoAddress{{Email: m.To, Name: m.ToName}},
		Subject:     m.Subject,
		HTMLContent: m.HTML,
		TextContent: m.Text,
	})
	if err != nil {
		return err
	}
	url := s.URL
	if url == "" {
		url = defaultBrevoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", s.APIKey)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
