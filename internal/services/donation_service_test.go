package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/nimasrn/donation-gateway/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, d *model.Donation) (*model.Donation, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.Donation, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Donation), args.Get(1).(int64), args.Error(2)
}

func (m *MockDonationRepository) SetGatewayReference(ctx context.Context, id int64, paymentID, vaNumber, bankCode string) error {
	args := m.Called(ctx, id, paymentID, vaNumber, bankCode)
	return args.Error(0)
}

func (m *MockDonationRepository) SetProofURL(ctx context.Context, id int64, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *MockDonationRepository) UpdateStatus(ctx context.Context, id int64, from, to model.DonationStatus, successAt *time.Time) error {
	args := m.Called(ctx, id, from, to, successAt)
	return args.Error(0)
}

func (m *MockDonationRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockStreamingReader struct {
	mock.Mock
}

func (m *MockStreamingReader) GetByCode(ctx context.Context, code string) (*model.Streaming, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Streaming), args.Error(1)
}

func (m *MockStreamingReader) AddDonationTotal(ctx context.Context, code string, amount int64) error {
	args := m.Called(ctx, code, amount)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCharge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.Charge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Charge), args.Error(1)
}

func (m *MockPaymentGateway) GetTransactionStatus(ctx context.Context, transactionID string) (*gateway.TransactionStatus, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.TransactionStatus), args.Error(1)
}

func (m *MockPaymentGateway) VerifyNotificationSignature(p *gateway.NotificationPayload) bool {
	args := m.Called(p)
	return args.Bool(0)
}

type MockProofStore struct {
	mock.Mock
}

func (m *MockProofStore) Store(ctx context.Context, file *uploads.File) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func testProofDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("transfer receipt"))
}

func TestDonationService_Create_Validation(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	proofs := new(MockProofStore)
	ctx := context.Background()

	service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

	cases := []struct {
		name string
		req  model.DonationCreateRequest
	}{
		{"zero amount", model.DonationCreateRequest{StreamingCode: "abc12345", UserID: 1, Amount: 0, BankCode: "bni"}},
		{"negative amount", model.DonationCreateRequest{StreamingCode: "abc12345", UserID: 1, Amount: -5000, BankCode: "bni"}},
		{"no payment path", model.DonationCreateRequest{StreamingCode: "abc12345", UserID: 1, Amount: 10000}},
		{"both payment paths", model.DonationCreateRequest{StreamingCode: "abc12345", UserID: 1, Amount: 10000, BankCode: "bni", ManualPayment: &model.ManualPayment{BankName: "BCA"}}},
		{"manual without bank name", model.DonationCreateRequest{StreamingCode: "abc12345", UserID: 1, Amount: 10000, ManualPayment: &model.ManualPayment{}}},
		{"missing streaming code", model.DonationCreateRequest{UserID: 1, Amount: 10000, BankCode: "bni"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.Create(ctx, tc.req)
			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}

	donationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDonationService_Create_StreamingNotFound(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	proofs := new(MockProofStore)
	ctx := context.Background()

	service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

	streamingRepo.On("GetByCode", ctx, "missing1").Return(nil, repository.ErrStreamingNotFound)

	result, err := service.Create(ctx, model.DonationCreateRequest{
		StreamingCode: "missing1",
		UserID:        1,
		Amount:        10000,
		BankCode:      "bni",
	})
	assert.ErrorIs(t, err, ErrStreamingGone)
	assert.Nil(t, result)

	donationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	streamingRepo.AssertExpectations(t)
}

func TestDonationService_Create_Manual(t *testing.T) {
	ctx := context.Background()
	streaming := &model.Streaming{Code: "abc12345", UserID: 9}

	t.Run("without proof lands in need_confirmation", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		streamingRepo.On("GetByCode", ctx, "abc12345").Return(streaming, nil)
		donationRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Donation) bool {
			return d.Status == model.DonationStatusNeedConfirmation &&
				d.PaymentType == model.PaymentTypeManual &&
				d.BankName == "BCA" &&
				d.ProofURL == ""
		})).Return(&model.Donation{ID: 1, Status: model.DonationStatusNeedConfirmation, PaymentType: model.PaymentTypeManual}, nil)

		result, err := service.Create(ctx, model.DonationCreateRequest{
			StreamingCode: "abc12345",
			UserID:        1,
			Amount:        25000,
			ManualPayment: &model.ManualPayment{BankName: "BCA"},
		})
		require.NoError(t, err)
		assert.Equal(t, model.DonationStatusNeedConfirmation, result.Status)

		proofs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
		donationRepo.AssertExpectations(t)
	})

	t.Run("with proof stores the upload first", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		streamingRepo.On("GetByCode", ctx, "abc12345").Return(streaming, nil)
		proofs.On("Store", ctx, mock.AnythingOfType("*uploads.File")).Return("https://cdn.example.com/proof.png", nil)
		donationRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Donation) bool {
			return d.ProofURL == "https://cdn.example.com/proof.png"
		})).Return(&model.Donation{ID: 2, ProofURL: "https://cdn.example.com/proof.png"}, nil)

		result, err := service.Create(ctx, model.DonationCreateRequest{
			StreamingCode: "abc12345",
			UserID:        1,
			Amount:        25000,
			ManualPayment: &model.ManualPayment{BankName: "BCA", ProofData: testProofDataURI()},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/proof.png", result.ProofURL)

		proofs.AssertExpectations(t)
		donationRepo.AssertExpectations(t)
	})

	t.Run("malformed proof rejects before any write", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		streamingRepo.On("GetByCode", ctx, "abc12345").Return(streaming, nil)

		result, err := service.Create(ctx, model.DonationCreateRequest{
			StreamingCode: "abc12345",
			UserID:        1,
			Amount:        25000,
			ManualPayment: &model.ManualPayment{BankName: "BCA", ProofData: "not a data uri"},
		})
		assert.Error(t, err)
		assert.Nil(t, result)

		donationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDonationService_Create_Instant(t *testing.T) {
	ctx := context.Background()
	streaming := &model.Streaming{Code: "abc12345", UserID: 9}

	t.Run("charges the gateway and stores the reference", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		streamingRepo.On("GetByCode", ctx, "abc12345").Return(streaming, nil)
		donationRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Donation) bool {
			return d.Status == model.DonationStatusPending && d.PaymentType == model.PaymentTypeInstant
		})).Return(&model.Donation{ID: 7, Amount: 50000, Status: model.DonationStatusPending, PaymentType: model.PaymentTypeInstant}, nil)
		gw.On("CreateCharge", ctx, &gateway.ChargeRequest{
			OrderID:     "7",
			GrossAmount: 50000,
			BankCode:    "bni",
		}).Return(&gateway.Charge{TransactionID: "tx-001", OrderID: "7", Status: "pending", VANumber: "9889001234"}, nil)
		donationRepo.On("SetGatewayReference", ctx, int64(7), "tx-001", "9889001234", "bni").Return(nil)

		result, err := service.Create(ctx, model.DonationCreateRequest{
			StreamingCode: "abc12345",
			UserID:        1,
			Amount:        50000,
			BankCode:      "bni",
		})
		require.NoError(t, err)
		assert.Equal(t, "tx-001", result.PaymentID)
		assert.Equal(t, "9889001234", result.VANumber)
		assert.Equal(t, "bni", result.BankCode)
		assert.Equal(t, model.DonationStatusPending, result.Status)

		donationRepo.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("unsupported bank rejects before persisting", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		streamingRepo.On("GetByCode", ctx, "abc12345").Return(streaming, nil)

		result, err := service.Create(ctx, model.DonationCreateRequest{
			StreamingCode: "abc12345",
			UserID:        1,
			Amount:        50000,
			BankCode:      "monopoly",
		})
		assert.ErrorIs(t, err, ErrUnsupportedBank)
		assert.Nil(t, result)

		donationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		gw.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything)
	})

	t.Run("charge failure leaves the row pending without a reference", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		streamingRepo.On("GetByCode", ctx, "abc12345").Return(streaming, nil)
		donationRepo.On("Create", ctx, mock.Anything).
			Return(&model.Donation{ID: 8, Amount: 50000, Status: model.DonationStatusPending}, nil)
		gw.On("CreateCharge", ctx, mock.Anything).
			Return(nil, &gateway.GatewayError{StatusCode: "500", Message: "provider down"})

		result, err := service.Create(ctx, model.DonationCreateRequest{
			StreamingCode: "abc12345",
			UserID:        1,
			Amount:        50000,
			BankCode:      "bni",
		})
		assert.Error(t, err)
		assert.Nil(t, result)

		donationRepo.AssertNotCalled(t, "SetGatewayReference",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		donationRepo.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDonationService_Get_NotFound(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	proofs := new(MockProofStore)
	ctx := context.Background()

	service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

	donationRepo.On("GetByID", ctx, int64(404)).Return(nil, repository.ErrNotFound)

	result, err := service.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, result)
}

func TestDonationService_Confirm(t *testing.T) {
	ctx := context.Background()
	donation := &model.Donation{
		ID:            5,
		UserID:        2,
		StreamingCode: "abc12345",
		Amount:        40000,
		PaymentType:   model.PaymentTypeManual,
		Status:        model.DonationStatusNeedConfirmation,
	}
	owned := &model.Streaming{Code: "abc12345", UserID: 9}

	t.Run("owner confirms and total is credited atomically", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)
		streamingRepo.On("GetByCode", ctx, "abc12345").Return(owned, nil)
		donationRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		donationRepo.On("UpdateStatus", ctx, int64(5),
			model.DonationStatusNeedConfirmation, model.DonationStatusSuccess,
			mock.AnythingOfType("*time.Time")).Return(nil)
		streamingRepo.On("AddDonationTotal", ctx, "abc12345", int64(40000)).Return(nil)

		err := service.Confirm(ctx, 5, 9)
		require.NoError(t, err)

		donationRepo.AssertExpectations(t)
		streamingRepo.AssertExpectations(t)
	})

	t.Run("non-owner is rejected before any transition", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)
		streamingRepo.On("GetByCode", ctx, "abc12345").Return(owned, nil)

		err := service.Confirm(ctx, 5, 2)
		assert.ErrorIs(t, err, ErrForbidden)

		donationRepo.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ownership is checked before state", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		settled := &model.Donation{ID: 6, StreamingCode: "abc12345", Status: model.DonationStatusSuccess}
		donationRepo.On("GetByID", ctx, int64(6)).Return(settled, nil)
		streamingRepo.On("GetByCode", ctx, "abc12345").Return(owned, nil)

		err := service.Confirm(ctx, 6, 2)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("already settled donation is not confirmable", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)
		streamingRepo.On("GetByCode", ctx, "abc12345").Return(owned, nil)
		donationRepo.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		donationRepo.On("UpdateStatus", ctx, int64(5),
			model.DonationStatusNeedConfirmation, model.DonationStatusSuccess,
			mock.AnythingOfType("*time.Time")).Return(repository.ErrStaleStatus)

		err := service.Confirm(ctx, 5, 9)
		assert.ErrorIs(t, err, ErrInvalidState)

		streamingRepo.AssertNotCalled(t, "AddDonationTotal", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDonationService_Reject(t *testing.T) {
	ctx := context.Background()
	donation := &model.Donation{
		ID:            5,
		UserID:        2,
		StreamingCode: "abc12345",
		Amount:        40000,
		PaymentType:   model.PaymentTypeManual,
		Status:        model.DonationStatusNeedConfirmation,
	}
	owned := &model.Streaming{Code: "abc12345", UserID: 9}

	t.Run("owner rejects without touching the total", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)
		streamingRepo.On("GetByCode", ctx, "abc12345").Return(owned, nil)
		donationRepo.On("UpdateStatus", ctx, int64(5),
			model.DonationStatusNeedConfirmation, model.DonationStatusFailed,
			mock.MatchedBy(func(ts *time.Time) bool { return ts == nil })).Return(nil)

		err := service.Reject(ctx, 5, 9)
		require.NoError(t, err)

		streamingRepo.AssertNotCalled(t, "AddDonationTotal", mock.Anything, mock.Anything, mock.Anything)
		donationRepo.AssertExpectations(t)
	})

	t.Run("terminal donation is not rejectable", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)
		streamingRepo.On("GetByCode", ctx, "abc12345").Return(owned, nil)
		donationRepo.On("UpdateStatus", ctx, int64(5),
			model.DonationStatusNeedConfirmation, model.DonationStatusFailed,
			mock.Anything).Return(repository.ErrStaleStatus)

		err := service.Reject(ctx, 5, 9)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestDonationService_AttachProof(t *testing.T) {
	ctx := context.Background()
	donation := &model.Donation{
		ID:            5,
		UserID:        2,
		StreamingCode: "abc12345",
		PaymentType:   model.PaymentTypeManual,
		Status:        model.DonationStatusNeedConfirmation,
	}

	t.Run("donor attaches proof to a manual donation", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)
		proofs.On("Store", ctx, mock.AnythingOfType("*uploads.File")).Return("https://cdn.example.com/late-proof.png", nil)
		donationRepo.On("SetProofURL", ctx, int64(5), "https://cdn.example.com/late-proof.png").Return(nil)

		result, err := service.AttachProof(ctx, 5, 2, testProofDataURI())
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/late-proof.png", result.ProofURL)

		donationRepo.AssertExpectations(t)
		proofs.AssertExpectations(t)
	})

	t.Run("only the donor may attach", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)

		result, err := service.AttachProof(ctx, 5, 77, testProofDataURI())
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Nil(t, result)

		proofs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})

	t.Run("instant donations carry no proof", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		instant := &model.Donation{ID: 6, UserID: 2, PaymentType: model.PaymentTypeInstant}
		donationRepo.On("GetByID", ctx, int64(6)).Return(instant, nil)

		result, err := service.AttachProof(ctx, 6, 2, testProofDataURI())
		assert.ErrorIs(t, err, ErrManualOnly)
		assert.Nil(t, result)
	})

	t.Run("malformed data uri", func(t *testing.T) {
		donationRepo := new(MockDonationRepository)
		streamingRepo := new(MockStreamingReader)
		gw := new(MockPaymentGateway)
		proofs := new(MockProofStore)

		service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

		donationRepo.On("GetByID", ctx, int64(5)).Return(donation, nil)

		result, err := service.AttachProof(ctx, 5, 2, "image/png;notbase64")
		assert.Error(t, err)
		assert.Nil(t, result)

		donationRepo.AssertNotCalled(t, "SetProofURL", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDonationService_List(t *testing.T) {
	donationRepo := new(MockDonationRepository)
	streamingRepo := new(MockStreamingReader)
	gw := new(MockPaymentGateway)
	proofs := new(MockProofStore)
	ctx := context.Background()

	service := NewDonationService(donationRepo, streamingRepo, gw, proofs, nil)

	code := "abc12345"
	filter := model.DonationFilter{
		StreamingCode: &code,
		Statuses:      []model.DonationStatus{model.DonationStatusSuccess},
		Limit:         10,
	}
	expected := []*model.Donation{
		{ID: 1, StreamingCode: code, Status: model.DonationStatusSuccess},
		{ID: 2, StreamingCode: code, Status: model.DonationStatusSuccess},
	}

	donationRepo.On("List", ctx, filter).Return(expected, int64(2), nil)

	donations, total, err := service.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, donations, 2)

	donationRepo.AssertExpectations(t)
}
