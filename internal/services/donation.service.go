package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/queue"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/nimasrn/donation-gateway/internal/uploads"
	"github.com/nimasrn/donation-gateway/pkg/logger"
)

var (
	ErrNotFound        = errors.New("donation not found")
	ErrStreamingGone   = errors.New("streaming not found")
	ErrForbidden       = errors.New("user is not the streamer")
	ErrInvalidState    = errors.New("confirmation not needed")
	ErrUnsupportedBank = errors.New("unsupported bank code")
	ErrManualOnly      = errors.New("operation applies to manual donations only")
)

type DonationRepository interface {
	Create(ctx context.Context, d *model.Donation) (*model.Donation, error)
	GetByID(ctx context.Context, id int64) (*model.Donation, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*model.Donation, error)
	List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error)
	SetGatewayReference(ctx context.Context, id int64, paymentID, vaNumber, bankCode string) error
	SetProofURL(ctx context.Context, id int64, url string) error
	UpdateStatus(ctx context.Context, id int64, from, to model.DonationStatus, successAt *time.Time) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type StreamingReader interface {
	GetByCode(ctx context.Context, code string) (*model.Streaming, error)
	AddDonationTotal(ctx context.Context, code string, amount int64) error
}

type PaymentGateway interface {
	CreateCharge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.Charge, error)
	GetTransactionStatus(ctx context.Context, transactionID string) (*gateway.TransactionStatus, error)
	VerifyNotificationSignature(p *gateway.NotificationPayload) bool
}

type ProofStore interface {
	Store(ctx context.Context, file *uploads.File) (string, error)
}

type DonationService struct {
	donationRepo  DonationRepository
	streamingRepo StreamingReader
	gateway       PaymentGateway
	proofs        ProofStore
	alertQueue    *queue.Queue
}

func NewDonationService(donationRepo DonationRepository, streamingRepo StreamingReader, gw PaymentGateway, proofs ProofStore, alertQueue *queue.Queue) *DonationService {
	return &DonationService{
		donationRepo:  donationRepo,
		streamingRepo: streamingRepo,
		gateway:       gw,
		proofs:        proofs,
		alertQueue:    alertQueue,
	}
}

// Create dispatches on the payment path: a manual payment lands in
// need_confirmation, an instant one is charged against the gateway and lands
// in pending.
func (s *DonationService) Create(ctx context.Context, p model.DonationCreateRequest) (*model.Donation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	streaming, err := s.streamingRepo.GetByCode(ctx, p.StreamingCode)
	if err != nil {
		if errors.Is(err, repository.ErrStreamingNotFound) {
			return nil, ErrStreamingGone
		}
		return nil, err
	}

	if p.ManualPayment != nil {
		return s.createManual(ctx, streaming, p)
	}
	return s.createInstant(ctx, streaming, p)
}

func (s *DonationService) createManual(ctx context.Context, streaming *model.Streaming, p model.DonationCreateRequest) (*model.Donation, error) {
	proofURL := ""
	if p.ManualPayment.ProofData != "" {
		file, err := uploads.FromDataURI(p.ManualPayment.ProofData)
		if err != nil {
			return nil, fmt.Errorf("invalid payment proof: %w", err)
		}
		proofURL, err = s.proofs.Store(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("store payment proof: %w", err)
		}
	}

	d := &model.Donation{
		UserID:        p.UserID,
		StreamingCode: streaming.Code,
		Amount:        p.Amount,
		PaymentType:   model.PaymentTypeManual,
		Status:        model.DonationStatusNeedConfirmation,
		BankName:      p.ManualPayment.BankName,
		ProofURL:      proofURL,
	}

	created, err := s.donationRepo.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	logger.Info("Manual donation created",
		"donation_id", created.ID,
		"streaming_code", created.StreamingCode,
		"amount", created.Amount)

	return created, nil
}

// createInstant persists the donation first so its id can serve as the
// gateway order id, then charges. A failed charge leaves the row pending with
// no gateway reference; there is no automatic retry or rollback.
func (s *DonationService) createInstant(ctx context.Context, streaming *model.Streaming, p model.DonationCreateRequest) (*model.Donation, error) {
	if !gateway.IsSupportedBank(p.BankCode) {
		return nil, ErrUnsupportedBank
	}

	d := &model.Donation{
		UserID:        p.UserID,
		StreamingCode: streaming.Code,
		Amount:        p.Amount,
		PaymentType:   model.PaymentTypeInstant,
		Status:        model.DonationStatusPending,
	}

	created, err := s.donationRepo.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create donation: %w", err)
	}

	charge, err := s.gateway.CreateCharge(ctx, &gateway.ChargeRequest{
		OrderID:     strconv.FormatInt(created.ID, 10),
		GrossAmount: created.Amount,
		BankCode:    p.BankCode,
	})
	if err != nil {
		logger.Error("Gateway charge failed, donation left pending",
			"donation_id", created.ID, "error", err)
		return nil, err
	}

	if err := s.donationRepo.SetGatewayReference(ctx, created.ID, charge.TransactionID, charge.VANumber, p.BankCode); err != nil {
		return nil, fmt.Errorf("store gateway reference: %w", err)
	}

	created.PaymentID = charge.TransactionID
	created.VANumber = charge.VANumber
	created.BankCode = p.BankCode

	logger.Info("Instant donation created",
		"donation_id", created.ID,
		"transaction_id", charge.TransactionID,
		"bank", p.BankCode)

	return created, nil
}

func (s *DonationService) Get(ctx context.Context, id int64) (*model.Donation, error) {
	d, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *DonationService) List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error) {
	return s.donationRepo.List(ctx, f)
}

// Confirm marks a manual donation as paid. Only the campaign owner may call
// it, and only while the donation still needs confirmation.
func (s *DonationService) Confirm(ctx context.Context, donationID, actingUserID int64) error {
	d, err := s.authorizeOwnerAction(ctx, donationID, actingUserID)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.donationRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.donationRepo.UpdateStatus(ctx, d.ID, model.DonationStatusNeedConfirmation, model.DonationStatusSuccess, &now); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				return ErrInvalidState
			}
			return err
		}
		return s.streamingRepo.AddDonationTotal(ctx, d.StreamingCode, d.Amount)
	})
	if err != nil {
		return err
	}

	s.publishSettled(ctx, d, now)
	return nil
}

// Reject declines a manual donation. Terminal; success_at stays null.
func (s *DonationService) Reject(ctx context.Context, donationID, actingUserID int64) error {
	d, err := s.authorizeOwnerAction(ctx, donationID, actingUserID)
	if err != nil {
		return err
	}

	if err := s.donationRepo.UpdateStatus(ctx, d.ID, model.DonationStatusNeedConfirmation, model.DonationStatusFailed, nil); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrInvalidState
		}
		return err
	}
	return nil
}

// AttachProof uploads a transfer proof onto an existing manual donation.
func (s *DonationService) AttachProof(ctx context.Context, donationID, actingUserID int64, dataURI string) (*model.Donation, error) {
	d, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.UserID != actingUserID {
		return nil, ErrForbidden
	}
	if d.PaymentType != model.PaymentTypeManual {
		return nil, ErrManualOnly
	}

	file, err := uploads.FromDataURI(dataURI)
	if err != nil {
		return nil, fmt.Errorf("invalid payment proof: %w", err)
	}
	url, err := s.proofs.Store(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("store payment proof: %w", err)
	}

	if err := s.donationRepo.SetProofURL(ctx, d.ID, url); err != nil {
		return nil, err
	}
	d.ProofURL = url
	return d, nil
}

// authorizeOwnerAction loads the donation and checks the acting user owns the
// campaign. Ownership is checked before the donation's state, matching the
// public API contract.
func (s *DonationService) authorizeOwnerAction(ctx context.Context, donationID, actingUserID int64) (*model.Donation, error) {
	d, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}

	streaming, err := s.streamingRepo.GetByCode(ctx, d.StreamingCode)
	if err != nil {
		if errors.Is(err, repository.ErrStreamingNotFound) {
			return nil, ErrStreamingGone
		}
		return nil, err
	}
	if streaming.UserID != actingUserID {
		return nil, ErrForbidden
	}
	return d, nil
}

// publishSettled emits the settled event for the overlay alerts consumer.
// Best effort: a publish failure never unwinds a committed settlement.
func (s *DonationService) publishSettled(ctx context.Context, d *model.Donation, settledAt time.Time) {
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
