package mail

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

type Message struct {
	From        string
	FromName    string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Build renders the full RFC 5322 message: headers, a text/plain body and any
// attachments inside a multipart/mixed envelope with base64 parts.
func (m Message) Build() ([]byte, error) {
	if strings.TrimSpace(m.From) == "" {
		return nil, fmt.Errorf("mail: From required")
	}
	if strings.TrimSpace(m.To) == "" {
		return nil, fmt.Errorf("mail: To required")
	}

	var msg strings.Builder
	fromAddr := mail.Address{Name: m.FromName, Address: m.From}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", fromAddr.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", m.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", m.Subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if len(m.Attachments) == 0 {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(m.Body)
		msg.WriteString("\r\n")
		return []byte(msg.String()), nil
	}

	boundary := randomBoundary("mixed")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary))

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(m.Body)
	msg.WriteString("\r\n\r\n")

	for _, att := range m.Attachments {
		if strings.TrimSpace(att.Filename) == "" {
			return nil, fmt.Errorf("mail: attachment filename required")
		}
		mimeType := att.MIMEType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", mimeType, att.Filename))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename))
		msg.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(att.Content)))
		msg.WriteString("\r\n")
	}
	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return []byte(msg.String()), nil
}

func randomBoundary(prefix string) string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return prefix + "-" + hex.EncodeToString(buf)
}

// wrapBase64 folds encoded content at the 76-char MIME line limit.
func wrapBase64(s string) string {
	const lineLen = 76
	var b strings.Builder
	for len(s) > lineLen {
		b.WriteString(s[:lineLen])
		b.WriteString("\r\n")
		s = s[lineLen:]
	}
	b.WriteString(s)
	return b.String()
}
