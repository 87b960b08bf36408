package channel

import (
	"context"
	"net/http"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// Push delivers notifications through an HTTP push provider. The device
// token comes from the notification's template data under "device_token".
type Push struct {
	client   *http.Client
	endpoint string
	apiKey   string
	ins      instrument.Instrumentation
}

func NewPush(client *http.Client, endpoint, apiKey string, ins instrument.Instrumentation) *Push {
	if client == nil {
		client = http.DefaultClient
	}

	return &Push{client: client, endpoint: endpoint, apiKey: apiKey, ins: ins}
}

type pushRequest struct {
	DeviceToken string `json:"device_token"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

func (p *Push) Send(ctx context.Context, n entity.Notification) (string, error) {
	ctx, span := p.ins.Tracer("notification.outbound.channel").Start(ctx, "Push.Send")
	defer span.End()

	token := n.TemplateData.GetString("device_token")
	if token == "" {
		err := errNoRecipient("device_token")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	ref, err := postProvider(ctx, p.client, p.endpoint, p.apiKey, pushRequest{
		DeviceToken: token,
		Title:       n.Subject,
		Body:        n.Message,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	return ref, nil
}
