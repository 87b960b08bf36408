package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// SMS delivers notifications through an HTTP SMS gateway. The phone
// number comes from the notification's template data under "phone".
type SMS struct {
	client   *http.Client
	endpoint string
	apiKey   string
	ins      instrument.Instrumentation
}

func NewSMS(client *http.Client, endpoint, apiKey string, ins instrument.Instrumentation) *SMS {
	if client == nil {
		client = http.DefaultClient
	}

	return &SMS{client: client, endpoint: endpoint, apiKey: apiKey, ins: ins}
}

type smsRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type providerResponse struct {
	Ref string `json:"ref"`
}

func (s *SMS) Send(ctx context.Context, n entity.Notification) (string, error) {
	ctx, span := s.ins.Tracer("notification.outbound.channel").Start(ctx, "SMS.Send")
	defer span.End()

	phone := n.TemplateData.GetString("phone")
	if phone == "" {
		err := errNoRecipient("phone")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	ref, err := postProvider(ctx, s.client, s.endpoint, s.apiKey, smsRequest{To: phone, Body: n.Message})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	return ref, nil
}

// postProvider sends one JSON request to a provider endpoint. A 4xx
// answer is a permanent rejection; 5xx and transport errors stay
// transient so the retry path can take another run.
func postProvider(ctx context.Context, client *http.Client, endpoint, apiKey string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("provider answered %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("provider rejected with %d: %w", resp.StatusCode, entity.ErrPermanentDelivery)
	}

	var pr providerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&pr); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}

	return pr.Ref, nil
}
