package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"golang.org/x/net/html"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/config"
)

// SMTP sends mail over plain SMTP. Bodies arrive as HTML and are flattened
// to text, since the relay templates render badly in text-only clients
// otherwise.
type SMTP struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

func (m *SMTP) Send(ctx context.Context, to, subject, htmlBody string) (Outcome, error) {
	if !m.cfg.EmailEnabled {
		return Skipped, nil
	}
	if to == "" {
		return Failed, fmt.Errorf("mailer.SMTP.Send: empty recipient address")
	}

	headers := []string{
		"From: " + m.cfg.EmailFrom,
		"To: " + to,
		"Subject: " + subject,
		"",
		HTMLToText(htmlBody),
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	err := smtp.SendMail(addr, auth, m.cfg.EmailFrom, []string{to}, msg)
	if err != nil {
		return Failed, fmt.Errorf("mailer.SMTP.Send: %w", err)
	}
	return Delivered, nil
}

// HTMLToText flattens an HTML body to plain text, keeping line breaks for
// block elements. Unparseable input is returned as-is.
func HTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			case "li":
				text.WriteString("\n- ")
			case "td", "th":
				text.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	result := text.String()
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}
