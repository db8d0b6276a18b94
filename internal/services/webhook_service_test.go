package services

import (
	"context"
	"testing"
	"time"

	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingDonation() *model.Donation {
	return &model.Donation{
		ID:            11,
		UserID:        2,
		StreamingCode: "abc12345",
		Amount:        75000,
		PaymentType:   model.PaymentTypeInstant,
		Status:        model.DonationStatusPending,
		PaymentID:     "tx-011",
	}
}

func notification() *gateway.NotificationPayload {
	return &gateway.NotificationPayload{
		OrderID:           "11",
		StatusCode:        "200",
		GrossAmount:       "75000.00",
		SignatureKey:      "deadbeef",
		TransactionID:     "tx-011",
		TransactionStatus: "settlement",
	}
}

func TestWebhookService_InvalidSignature(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	ctx := context.Background()

	service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

	p := notification()
	gw.On("VerifyNotificationSignature", p).Return(false)

	err := service.HandleNotification(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// the endpoint must not leak whether the transaction exists
	donationRepo.AssertNotCalled(t, "GetByPaymentID", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "GetTransactionStatus", mock.Anything, mock.Anything)
}

func TestWebhookService_UnknownTransaction(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	ctx := context.Background()

	service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

	p := notification()
	gw.On("VerifyNotificationSignature", p).Return(true)
	donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(nil, repository.ErrNotFound)

	err := service.HandleNotification(ctx, p)
	require.NoError(t, err)

	gw.AssertNotCalled(t, "GetTransactionStatus", mock.Anything, mock.Anything)
	donationRepo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookService_Settlement(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	ctx := context.Background()

	service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

	p := notification()
	gw.On("VerifyNotificationSignature", p).Return(true)
	donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(pendingDonation(), nil)
	gw.On("GetTransactionStatus", ctx, "tx-011").
		Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: "settlement"}, nil)
	donationRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	donationRepo.On("UpdateStatus", ctx, int64(11),
		model.DonationStatusPending, model.DonationStatusSuccess,
		mock.AnythingOfType("*time.Time")).Return(nil)
	streamingRepo.On("AddDonationTotal", ctx, "abc12345", int64(75000)).Return(nil)

	err := service.HandleNotification(ctx, p)
	require.NoError(t, err)

	donationRepo.AssertExpectations(t)
	streamingRepo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestWebhookService_PayloadStatusIsNotTrusted(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	ctx := context.Background()

	service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

	// payload claims settlement, provider still says pending
	p := notification()
	gw.On("VerifyNotificationSignature", p).Return(true)
	donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(pendingDonation(), nil)
	gw.On("GetTransactionStatus", ctx, "tx-011").
		Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: "pending"}, nil)

	err := service.HandleNotification(ctx, p)
	require.NoError(t, err)

	donationRepo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	streamingRepo.AssertNotCalled(t, "AddDonationTotal", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookService_DuplicateSettlement(t *testing.T) {
	t.Run("already success short-circuits", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		ctx := context.Background()

		service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

		settled := pendingDonation()
		settled.Status = model.DonationStatusSuccess
		now := time.Now()
		settled.SuccessAt = &now

		p := notification()
		gw.On("VerifyNotificationSignature", p).Return(true)
		donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(settled, nil)
		gw.On("GetTransactionStatus", ctx, "tx-011").
			Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: "settlement"}, nil)

		err := service.HandleNotification(ctx, p)
		require.NoError(t, err)

		donationRepo.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
		streamingRepo.AssertNotCalled(t, "AddDonationTotal", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race against an identical transition is benign", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		ctx := context.Background()

		service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

		p := notification()
		gw.On("VerifyNotificationSignature", p).Return(true)
		donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(pendingDonation(), nil)
		gw.On("GetTransactionStatus", ctx, "tx-011").
			Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: "settlement"}, nil)
		donationRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		donationRepo.On("UpdateStatus", ctx, int64(11),
			model.DonationStatusPending, model.DonationStatusSuccess,
			mock.AnythingOfType("*time.Time")).Return(repository.ErrStaleStatus)

		// reload shows the row already settled by the concurrent delivery
		resolved := pendingDonation()
		resolved.Status = model.DonationStatusSuccess
		donationRepo.On("GetByID", ctx, int64(11)).Return(resolved, nil)

		err := service.HandleNotification(ctx, p)
		require.NoError(t, err)
	})

	t.Run("lost race against a conflicting transition is reported", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		ctx := context.Background()

		service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

		p := notification()
		gw.On("VerifyNotificationSignature", p).Return(true)
		donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(pendingDonation(), nil)
		gw.On("GetTransactionStatus", ctx, "tx-011").
			Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: "settlement"}, nil)
		donationRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		donationRepo.On("UpdateStatus", ctx, int64(11),
			model.DonationStatusPending, model.DonationStatusSuccess,
			mock.AnythingOfType("*time.Time")).Return(repository.ErrStaleStatus)

		resolved := pendingDonation()
		resolved.Status = model.DonationStatusFailed
		donationRepo.On("GetByID", ctx, int64(11)).Return(resolved, nil)

		err := service.HandleNotification(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestWebhookService_Failure(t *testing.T) {
	for _, status := range []string{"expire", "cancel", "deny"} {
		t.Run(status, func(t *testing.T) {
			donationRepo := new(MockDonationRepository)
			streamingRepo := new(MockStreamingReader)
			gw := new(MockPaymentGateway)
			ctx := context.Background()

			service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

			p := notification()
			gw.On("VerifyNotificationSignature", p).Return(true)
			donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(pendingDonation(), nil)
			gw.On("GetTransactionStatus", ctx, "tx-011").
				Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: status}, nil)
			donationRepo.On("UpdateStatus", ctx, int64(11),
				model.DonationStatusPending, model.DonationStatusFailed,
				mock.MatchedBy(func(ts *time.Time) bool { return ts == nil })).Return(nil)

			err := service.HandleNotification(ctx, p)
			require.NoError(t, err)

			streamingRepo.AssertNotCalled(t, "AddDonationTotal", mock.Anything, mock.Anything, mock.Anything)
			donationRepo.AssertExpectations(t)
		})
	}
}

func TestWebhookService_UnrecognizedStatus(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	ctx := context.Background()

	service := NewWebhookService(donationRepo, streamingRepo, gw, nil)

	p := notification()
	gw.On("VerifyNotificationSignature", p).Return(true)
	donationRepo.On("GetByPaymentID", ctx, "tx-011").Return(pendingDonation(), nil)
	gw.On("GetTransactionStatus", ctx, "tx-011").
		Return(&gateway.TransactionStatus{TransactionID: "tx-011", TransactionStatus: "refund"}, nil)

	err := service.HandleNotification(ctx, p)
	require.NoError(t, err)

	donationRepo.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
