package mail

import (
	"bytes"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/kontenhub/cms/internal/config"
)

// Config holds SMTP settings.
type Config struct {
	Enable bool
	Host   string
	Port   int
	User   string
	Pass   string
	From   string
}

// FromApp maps the application mail section onto a Config.
func FromApp(cfg config.MailConfig) Config {
	return Config{
		Enable: cfg.Enable,
		Host:   cfg.Host,
		Port:   cfg.Port,
		User:   cfg.User,
		Pass:   cfg.Pass,
		From:   cfg.From,
	}
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(msg Message) error
}

// Sender sends emails via SMTP.
type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether the sender will actually deliver mail.
func (s *Sender) Enabled() bool { return s.cfg.Enable && s.cfg.Host != "" }

// Send dispatches an email. A disabled sender drops the message silently.
func (s *Sender) Send(msg Message) error {
	if !s.Enabled() {
		return nil
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}

	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))

	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, from, msg.To, buildBody(from, msg))
}

func buildBody(from string, msg Message) []byte {
	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", from))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	body.WriteString("\r\n")
	body.WriteString(msg.HTML)
	return body.Bytes()
}
