package channel

import (
	"context"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/mail"
	"github.com/sdwijaya/herald/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
)

// Email delivers notifications over SMTP. The recipient address comes
// from the notification's template data under "email".
type Email struct {
	client mail.Mail
	from   string
	uuid   uid.StringID
	ins    instrument.Instrumentation
}

func NewEmail(client mail.Mail, from string, uuid uid.StringID, ins instrument.Instrumentation) *Email {
	return &Email{client: client, from: from, uuid: uuid, ins: ins}
}

func (e *Email) Send(ctx context.Context, n entity.Notification) (string, error) {
	ctx, span := e.ins.Tracer("notification.outbound.channel").Start(ctx, "Email.Send")
	defer span.End()

	to := n.TemplateData.GetString("email")
	if to == "" {
		err := errNoRecipient("email")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	if err := e.client.Send(ctx, mail.Message{
		From:     e.from,
		To:       []string{to},
		Subject:  n.Subject,
		TextBody: n.Message,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	return "smtp-" + e.uuid.Generate(), nil
}
