package inbound

import (
	"sort"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/notification/usecase"
	"github.com/sdwijaya/herald/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// CreateNotification ingests one notification into the pipeline.
func (h *HTTPEndpoint) CreateNotification(r *router.Request) (any, error) {
	var req CreateNotificationRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Create(r.Context(), usecase.CreateInput{
		UserID:       req.UserID,
		Channel:      req.Channel,
		Priority:     req.Priority,
		Category:     req.Category,
		Subject:      req.Subject,
		Message:      req.Message,
		Template:     req.Template,
		TemplateData: req.TemplateData,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	return CreateNotificationResponse{
		ID:        out.ID,
		Status:    out.Status.String(),
		Duplicate: out.Duplicate,
	}, nil
}

// ListNotifications returns a user's notifications.
func (h *HTTPEndpoint) ListNotifications(r *router.Request) (any, error) {
	userID, err := r.GetQueryInt64("user_id")
	if err != nil {
		return nil, err
	}
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	items, err := h.uc.List(r.Context(), usecase.ListInput{
		UserID:  userID,
		Channel: r.GetQuery("channel"),
		Status:  r.GetQuery("status"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, notificationToResponse(item))
	}

	return NotificationsResponse{Notifications: resp}, nil
}

// GetNotification returns one notification with its delivery attempts.
func (h *HTTPEndpoint) GetNotification(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}

	attempts := make([]DeliveryAttemptResponse, 0, len(out.Attempts))
	for _, a := range out.Attempts {
		attempts = append(attempts, DeliveryAttemptResponse{
			Attempt:     a.Attempt,
			Success:     a.Success,
			ProviderRef: a.ProviderRef,
			FailReason:  a.FailReason,
			AttemptedAt: a.AttemptedAt,
		})
	}

	return NotificationDetailResponse{
		NotificationResponse: notificationToResponse(out.Notification),
		Attempts:             attempts,
	}, nil
}

// MarkDelivered records a provider delivery acknowledgement.
func (h *HTTPEndpoint) MarkDelivered(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.MarkDelivered(r.Context(), id)
}

// MarkRead records the user opening a notification.
func (h *HTTPEndpoint) MarkRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.MarkRead(r.Context(), id)
}

// GetPreference returns a user's delivery settings.
func (h *HTTPEndpoint) GetPreference(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	pref, err := h.uc.GetPreference(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	return preferenceToResponse(*pref), nil
}

// UpsertPreference replaces a user's delivery settings.
func (h *HTTPEndpoint) UpsertPreference(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	var req PreferenceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in := usecase.UpsertPreferenceInput{
		UserID:      userID,
		QuietHours:  quietHoursToInput(req.QuietHours),
		HourlyLimit: req.HourlyLimit,
		DailyLimit:  req.DailyLimit,
	}
	for _, cp := range req.Channels {
		in.Channels = append(in.Channels, usecase.ChannelPreferenceInput{
			Channel:     cp.Channel,
			Enabled:     cp.Enabled,
			QuietHours:  quietHoursToInput(cp.QuietHours),
			HourlyLimit: cp.HourlyLimit,
			DailyLimit:  cp.DailyLimit,
		})
	}

	return nil, h.uc.UpsertPreference(r.Context(), in)
}

func notificationToResponse(n entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		UserID:         n.UserID,
		Channel:        n.Channel.String(),
		Priority:       n.Priority.String(),
		Category:       n.Category,
		Subject:        n.Subject,
		Message:        n.Message,
		Template:       n.Template,
		TemplateData:   n.TemplateData,
		Status:         n.Status.String(),
		ScheduledFor:   n.ScheduledFor,
		ExpiresAt:      n.ExpiresAt,
		RetryCount:     n.RetryCount,
		LastRetryAt:    n.LastRetryAt,
		FailReason:     n.FailReason,
		AggregatedInto: n.AggregatedInto,
		AggregatedFrom: n.AggregatedFrom,
		SentAt:         n.SentAt,
		DeliveredAt:    n.DeliveredAt,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}

func preferenceToResponse(pref entity.UserPreference) PreferenceResponse {
	resp := PreferenceResponse{
		UserID:      pref.UserID,
		QuietHours:  quietHoursToModel(pref.QuietHours),
		HourlyLimit: pref.HourlyLimit,
		DailyLimit:  pref.DailyLimit,
		Channels:    make([]ChannelPreferenceModel, 0, len(pref.Channels)),
		UpdatedAt:   pref.UpdatedAt,
	}
	for _, cp := range pref.Channels {
		resp.Channels = append(resp.Channels, ChannelPreferenceModel{
			Channel:     cp.Channel.String(),
			Enabled:     cp.Enabled,
			QuietHours:  quietHoursToModel(cp.QuietHours),
			HourlyLimit: cp.HourlyLimit,
			DailyLimit:  cp.DailyLimit,
		})
	}
	sort.Slice(resp.Channels, func(i, j int) bool { return resp.Channels[i].Channel < resp.Channels[j].Channel })

	return resp
}

func quietHoursToModel(q *entity.QuietHours) *QuietHoursModel {
	if q == nil {
		return nil
	}

	return &QuietHoursModel{Start: q.Start, End: q.End}
}

func quietHoursToInput(q *QuietHoursModel) *usecase.QuietHoursInput {
	if q == nil {
		return nil
	}

	return &usecase.QuietHoursInput{Start: q.Start, End: q.End}
}
