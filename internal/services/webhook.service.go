package services

import (
	"context"
	"errors"
	"time"

	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/queue"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/nimasrn/donation-gateway/pkg/logger"
)

var (
	// ErrInvalidSignature rejects a notification before any lookup happens.
	ErrInvalidSignature = errors.New("invalid notification signature")
)

// WebhookService reconciles gateway notifications with local donations.
// Deliveries are repeatable: the gateway retries until it sees a handled
// response, so every step tolerates duplicates.
type WebhookService struct {
	donationRepo  DonationRepository
	streamingRepo StreamingReader
	gateway       PaymentGateway
	alertQueue    *queue.Queue
}

func NewWebhookService(donationRepo DonationRepository, streamingRepo StreamingReader, gw PaymentGateway, alertQueue *queue.Queue) *WebhookService {
	return &WebhookService{
		donationRepo:  donationRepo,
		streamingRepo: streamingRepo,
		gateway:       gw,
		alertQueue:    alertQueue,
	}
}

// HandleNotification verifies the payload signature, correlates the donation
// by gateway transaction id, fetches the authoritative status and applies the
// matching transition.
//
// The signature gate runs before any lookup so the endpoint cannot be used to
// probe for valid transaction ids. A transaction id that matches no donation
// is acknowledged and dropped: the gateway notifies about transactions we did
// not originate, and a notification can also beat the creation path's write
// of the gateway reference.
func (s *WebhookService) HandleNotification(ctx context.Context, p *gateway.NotificationPayload) error {
	if !s.gateway.VerifyNotificationSignature(p) {
		return ErrInvalidSignature
	}

	d, err := s.donationRepo.GetByPaymentID(ctx, p.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Notification for unknown transaction, ignoring",
				"transaction_id", p.TransactionID, "order_id", p.OrderID)
			return nil
		}
		return err
	}

	// The payload's own transaction_status is advisory only.
	status, err := s.gateway.GetTransactionStatus(ctx, p.TransactionID)
	if err != nil {
		return err
	}

	switch {
	case status.IsSuccess():
		return s.markSettled(ctx, d)
	case status.IsFailed():
		return s.markFailed(ctx, d)
	case status.IsPending():
		return nil
	default:
		logger.Warn("Unrecognized transaction status, ignoring",
			"transaction_id", p.TransactionID, "status", status.TransactionStatus)
		return nil
	}
}

func (s *WebhookService) markSettled(ctx context.Context, d *model.Donation) error {
	if d.Status == model.DonationStatusSuccess {
		return nil
	}

	now := time.Now()
	err := s.donationRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.donationRepo.UpdateStatus(ctx, d.ID, model.DonationStatusPending, model.DonationStatusSuccess, &now); err != nil {
			return err
		}
		return s.streamingRepo.AddDonationTotal(ctx, d.StreamingCode, d.Amount)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return s.resolveStale(ctx, d.ID, model.DonationStatusSuccess)
		}
		return err
	}

	logger.Info("Donation settled via notification", "donation_id", d.ID, "amount", d.Amount)
	s.publishSettled(ctx, d, now)
	return nil
}

func (s *WebhookService) markFailed(ctx context.Context, d *model.Donation) error {
	if d.Status == model.DonationStatusFailed {
		return nil
	}

	if err := s.donationRepo.UpdateStatus(ctx, d.ID, model.DonationStatusPending, model.DonationStatusFailed, nil); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return s.resolveStale(ctx, d.ID, model.DonationStatusFailed)
		}
		return err
	}

	logger.Info("Donation failed via notification", "donation_id", d.ID)
	return nil
}

// resolveStale decides whether a lost transition race was a duplicate
// delivery (row already in the target state, benign) or a genuinely
// inapplicable state.
func (s *WebhookService) resolveStale(ctx context.Context, id int64, want model.DonationStatus) error {
	current, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == want {
		return nil
	}
	return ErrInvalidState
}

func (s *WebhookService) publishSettled(ctx context.Context, d *model.Donation, settledAt time.Time) {
	if s.alertQueue == nil {
		return
	}
	donorName := ""
	if d.User != nil {
		donorName = d.User.Name
	}
	event := model.DonationSettledEvent{
		DonationID:    d.ID,
		StreamingCode: d.StreamingCode,
		DonorName:     donorName,
		Amount:        d.Amount,
		PaymentType:   d.PaymentType,
		SettledAt:     settledAt,
	}
	if _, err := s.alertQueue.PublishJSON(ctx, event, nil); err != nil {
		logger.Error("Failed to publish settled event", "donation_id", d.ID, "error", err)
	}
}
