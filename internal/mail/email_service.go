// Package mail delivers customer notifications. Delivery is a best-effort
// side channel: callers log failures and never roll back the mutation that
// triggered the message.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Notifier is the outbound notification contract used by the services.
type Notifier interface {
	Send(toEmail, subject, body string, customerID int) error
}

// SMTPService sends notifications through a plain SMTP relay.
type SMTPService struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	ShopName string
}

func NewSMTPService(host string, port int, username, password, from, shopName string) *SMTPService {
	return &SMTPService{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		ShopName: shopName,
	}
}

// Send delivers one plain-text message.
func (s *SMTPService) Send(toEmail, subject, body string, customerID int) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.ShopName, s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", toEmail, err)
	}
	return nil
}

// MockMailService logs messages instead of sending them. Used when SMTP is
// not configured so local runs still show what would have gone out.
type MockMailService struct{}

func NewMockMailService() *MockMailService {
	return &MockMailService{}
}

func (s *MockMailService) Send(toEmail, subject, body string, customerID int) error {
	log.Printf("[Mail] MOCK to=%s customer=%d subject=%q", toEmail, customerID, subject)
	return nil
}
