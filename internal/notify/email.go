package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"crmsync/internal/components/assert"
	"crmsync/internal/components/telemetry"
	"crmsync/internal/harvest"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("crmsync/notify")

const (
	report_mailer_send = "mailer.send"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Enabled reports whether notifications should be sent at all.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

type Mailer struct {
	config SmtpConfig
	tel    telemetry.API
}

func NewMailer(config SmtpConfig, tel telemetry.API) Mailer {
	assert.NotEmptyStr(config.Server)
	assert.NotEmptyStr(config.EmailAddress)
	assert.NotNil(tel)

	return Mailer{
		config: config,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

// Compose builds the notification for `records`, the workbook at `attachment` is attached
// when it is not empty.
func (m Mailer) Compose(records []harvest.Record, attachment string) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("crmsync <%s>", m.config.EmailAddress)
	mail.To = m.config.To
	mail.Subject = fmt.Sprintf("%d new student(s)", len(records))

	var body strings.Builder
	fmt.Fprintf(&body, "The last sync found %d new student(s).\n\n", len(records))
	for _, r := range records {
		fmt.Fprintf(&body, "#%d %s\n", r.ID, r.Name)
		if r.Contact != "" {
			fmt.Fprintf(&body, "    %s\n", r.Contact)
		}
		if r.ProgramUniversity != "" {
			fmt.Fprintf(&body, "    %s\n", r.ProgramUniversity)
		}
	}
	mail.Text = []byte(body.String())

	if attachment != "" {
		_, err := mail.AttachFile(attachment)
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", attachment, err)
		}
	}
	return mail, nil
}

func (m Mailer) SendNewRecords(ctx context.Context, records []harvest.Record, attachment string) error {
	_, span := tracer.Start(ctx, "SendNewRecords")
	defer span.End()

	mail, err := m.Compose(records, attachment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compose email")
		m.tel.ReportBroken(report_mailer_send, err)
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err = mail.Send(
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	// local relays and test servers do not offer AUTH
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		m.tel.ReportBroken(report_mailer_send, err, addr)
		return err
	}

	m.tel.ReportDebug(report_mailer_send, len(records), m.config.To)
	return nil
}
