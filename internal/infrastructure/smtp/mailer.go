package smtp

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/config"
	"github.com/runease-api/internal/metrics"
	"github.com/wneessen/go-mail"
)

// VerificationEmail is the content of one verification code email.
type VerificationEmail struct {
	To       string
	Username string
	Code     string
	ValidFor time.Duration
}

// Mailer sends transactional emails.
type Mailer interface {
	SendVerificationCode(ctx context.Context, e VerificationEmail) error
}

const verificationSubject = "Your RunEase verification code"

var textTpl = texttemplate.Must(texttemplate.New("text").Parse(`Hi {{.Username}},

Use this code to verify your RunEase account:

    {{.Code}}

{{.Expiry}}
If you did not sign up for RunEase, you can ignore this email.
`))

var htmlTpl = htmltemplate.Must(htmltemplate.New("html").Parse(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; max-width:600px; margin:0 auto;">
    <h2 style="color:#112952;">Verify your RunEase account</h2>
    <p>Hi <strong>{{.Username}}</strong>,</p>
    <p>Use this code to verify your account:</p>
    <div style="background-color:#f3f4f6; padding:20px; text-align:center; margin:20px 0; border-radius:10px;">
      <h1 style="color:#112952; font-size:36px; margin:0; letter-spacing:8px;">{{.Code}}</h1>
    </div>
    <p style="color:#ef4444; font-weight:bold;">{{.Expiry}}</p>
    <p>If you did not sign up for RunEase, you can ignore this email.</p>
  </body>
</html>`))

type templateData struct {
	Username string
	Code     string
	Expiry   string
}

// Render returns the plain text and HTML bodies for e.
func Render(e VerificationEmail) (text, html string, err error) {
	data := templateData{Username: e.Username, Code: e.Code, Expiry: ExpiryStatement(e.ValidFor)}
	var tb, hb bytes.Buffer
	if err := textTpl.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTpl.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return tb.String(), hb.String(), nil
}

// ExpiryStatement renders "This code is valid for 5 minutes."
func ExpiryStatement(d time.Duration) string {
	return "This code is valid for " + humanDuration(d) + "."
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	case d >= time.Second:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

type mailer struct {
	lg       zerolog.Logger
	host     string
	port     int
	from     string
	fromName string
	username string
	password string
	insecure bool
	timeout  time.Duration
}

func NewMailer(cfg *config.Config, lg zerolog.Logger) Mailer {
	return &mailer{
		lg:       lg.With().Str("component", "smtp_mailer").Logger(),
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		insecure: cfg.SMTPInsecure,
		timeout:  cfg.SMTPTimeout,
	}
}

func (m *mailer) SendVerificationCode(ctx context.Context, e VerificationEmail) error {
	start := time.Now()
	err := m.send(ctx, e)
	metrics.RecordEmail("smtp", err, time.Since(start))
	return err
}

func (m *mailer) send(ctx context.Context, e VerificationEmail) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	text, html, err := Render(e)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.AddToFormat(e.Username, e.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(verificationSubject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	tlsPolicy := mail.TLSMandatory
	if m.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}
	opts := []mail.Option{
		mail.WithPort(m.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if m.username != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(m.username), mail.WithPassword(m.password))
	}

	c, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client init: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		m.lg.Error().Err(err).Str("to", e.To).Msg("smtp send failed")
		return fmt.Errorf("smtp send: %w", err)
	}
	m.lg.Info().Str("to", e.To).Msg("verification email sent")
	return nil
}

type logMailer struct {
	lg zerolog.Logger
}

// NewLogMailer returns a Mailer that only logs the email. Development only.
func NewLogMailer(lg zerolog.Logger) Mailer {
	return &logMailer{lg: lg.With().Str("component", "log_mailer").Logger()}
}

func (m *logMailer) SendVerificationCode(_ context.Context, e VerificationEmail) error {
	start := time.Now()
	m.lg.Debug().
		Str("to", e.To).
		Str("username", e.Username).
		Str("code", e.Code).
		Str("expiry", strings.TrimSuffix(ExpiryStatement(e.ValidFor), ".")).
		Msg("verification email (not delivered)")
	metrics.RecordEmail("log", nil, time.Since(start))
	return nil
}
