package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDonor(t *testing.T, db *testDB, email string) *model.User {
	t.Helper()
	repo := NewUserRepository(db.DB)
	user, err := repo.Create(context.Background(), &model.User{
		Name:         "Donor",
		Email:        email,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return user
}

func seedStreaming(t *testing.T, db *testDB, code string, userID int64) *model.Streaming {
	t.Helper()
	repo := NewStreamingRepository(db.DB)
	streaming, err := repo.Create(context.Background(), &model.Streaming{
		Code:      code,
		UserID:    userID,
		DateStart: time.Now(),
		DateEnd:   time.Now().Add(time.Hour),
		Status:    model.StreamingStatusLive,
	})
	require.NoError(t, err)
	return streaming
}

func TestDonationRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db.DB)
	ctx := context.Background()

	donor := seedDonor(t, db, "donor@example.com")
	seedStreaming(t, db, "a1b2c3d4", donor.ID)

	t.Run("create manual donation", func(t *testing.T) {
		d := &model.Donation{
			UserID:        donor.ID,
			StreamingCode: "a1b2c3d4",
			Amount:        25000,
			PaymentType:   model.PaymentTypeManual,
			Status:        model.DonationStatusNeedConfirmation,
			BankName:      "BCA",
		}

		created, err := repo.Create(ctx, d)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.DonationStatusNeedConfirmation, created.Status)
		assert.Equal(t, "BCA", created.BankName)
		assert.Empty(t, created.PaymentID)
		assert.Nil(t, created.SuccessAt)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("create instant donation", func(t *testing.T) {
		d := &model.Donation{
			UserID:        donor.ID,
			StreamingCode: "a1b2c3d4",
			Amount:        50000,
			PaymentType:   model.PaymentTypeInstant,
			Status:        model.DonationStatusPending,
			BankCode:      "bca",
		}

		created, err := repo.Create(ctx, d)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, model.DonationStatusPending, created.Status)
	})
}

func TestDonationRepository_GetByPaymentID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db.DB)
	ctx := context.Background()

	donor := seedDonor(t, db, "donor@example.com")
	seedStreaming(t, db, "a1b2c3d4", donor.ID)

	created, err := repo.Create(ctx, &model.Donation{
		UserID:        donor.ID,
		StreamingCode: "a1b2c3d4",
		Amount:        50000,
		PaymentType:   model.PaymentTypeInstant,
		Status:        model.DonationStatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetGatewayReference(ctx, created.ID, "tx-abc", "9881234", "bca"))

	t.Run("found with donor preloaded", func(t *testing.T) {
		found, err := repo.GetByPaymentID(ctx, "tx-abc")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, "9881234", found.VANumber)
		assert.Equal(t, "bca", found.BankCode)
		require.NotNil(t, found.User)
		assert.Equal(t, "Donor", found.User.Name)
	})

	t.Run("unknown payment id", func(t *testing.T) {
		_, err := repo.GetByPaymentID(ctx, "tx-unknown")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDonationRepository_SetGatewayReference(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db.DB)
	ctx := context.Background()

	donor := seedDonor(t, db, "donor@example.com")
	seedStreaming(t, db, "a1b2c3d4", donor.ID)

	created, err := repo.Create(ctx, &model.Donation{
		UserID:        donor.ID,
		StreamingCode: "a1b2c3d4",
		Amount:        50000,
		PaymentType:   model.PaymentTypeInstant,
		Status:        model.DonationStatusPending,
	})
	require.NoError(t, err)

	t.Run("writes reference once", func(t *testing.T) {
		err := repo.SetGatewayReference(ctx, created.ID, "tx-1", "988111", "bni")
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "tx-1", got.PaymentID)
	})

	t.Run("reference is immutable", func(t *testing.T) {
		err := repo.SetGatewayReference(ctx, created.ID, "tx-2", "988222", "bca")
		assert.ErrorIs(t, err, ErrStaleStatus)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "tx-1", got.PaymentID)
	})

	t.Run("unknown donation", func(t *testing.T) {
		err := repo.SetGatewayReference(ctx, 99999, "tx-3", "", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDonationRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db.DB)
	ctx := context.Background()

	donor := seedDonor(t, db, "donor@example.com")
	seedStreaming(t, db, "a1b2c3d4", donor.ID)

	newDonation := func(status model.DonationStatus) *model.Donation {
		d, err := repo.Create(ctx, &model.Donation{
			UserID:        donor.ID,
			StreamingCode: "a1b2c3d4",
			Amount:        10000,
			PaymentType:   model.PaymentTypeManual,
			Status:        status,
		})
		require.NoError(t, err)
		return d
	}

	t.Run("settles pending donation and records success time", func(t *testing.T) {
		d := newDonation(model.DonationStatusPending)
		now := time.Now()

		err := repo.UpdateStatus(ctx, d.ID, model.DonationStatusPending, model.DonationStatusSuccess, &now)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DonationStatusSuccess, got.Status)
		require.NotNil(t, got.SuccessAt)
		assert.WithinDuration(t, now, *got.SuccessAt, time.Second)
	})

	t.Run("terminal donation cannot move again", func(t *testing.T) {
		d := newDonation(model.DonationStatusPending)
		now := time.Now()
		require.NoError(t, repo.UpdateStatus(ctx, d.ID, model.DonationStatusPending, model.DonationStatusSuccess, &now))

		err := repo.UpdateStatus(ctx, d.ID, model.DonationStatusPending, model.DonationStatusFailed, nil)
		assert.ErrorIs(t, err, ErrStaleStatus)

		got, err := repo.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DonationStatusSuccess, got.Status)
	})

	t.Run("rejects donation awaiting confirmation", func(t *testing.T) {
		d := newDonation(model.DonationStatusNeedConfirmation)

		err := repo.UpdateStatus(ctx, d.ID, model.DonationStatusNeedConfirmation, model.DonationStatusFailed, nil)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DonationStatusFailed, got.Status)
		assert.Nil(t, got.SuccessAt)
	})

	t.Run("only one of two guarded transitions wins", func(t *testing.T) {
		d := newDonation(model.DonationStatusNeedConfirmation)
		now := time.Now()

		first := repo.UpdateStatus(ctx, d.ID, model.DonationStatusNeedConfirmation, model.DonationStatusSuccess, &now)
		second := repo.UpdateStatus(ctx, d.ID, model.DonationStatusNeedConfirmation, model.DonationStatusFailed, nil)

		require.NoError(t, first)
		assert.ErrorIs(t, second, ErrStaleStatus)
	})

	t.Run("unknown donation", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 99999, model.DonationStatusPending, model.DonationStatusSuccess, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDonationRepository_SetProofURL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db.DB)
	ctx := context.Background()

	donor := seedDonor(t, db, "donor@example.com")
	seedStreaming(t, db, "a1b2c3d4", donor.ID)

	created, err := repo.Create(ctx, &model.Donation{
		UserID:        donor.ID,
		StreamingCode: "a1b2c3d4",
		Amount:        10000,
		PaymentType:   model.PaymentTypeManual,
		Status:        model.DonationStatusNeedConfirmation,
	})
	require.NoError(t, err)

	t.Run("attaches proof", func(t *testing.T) {
		err := repo.SetProofURL(ctx, created.ID, "https://cdn.example.com/proof.png")
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/proof.png", got.ProofURL)
		assert.Equal(t, model.DonationStatusNeedConfirmation, got.Status)
	})

	t.Run("unknown donation", func(t *testing.T) {
		err := repo.SetProofURL(ctx, 99999, "https://cdn.example.com/proof.png")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDonationRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db.DB)
	ctx := context.Background()

	donor := seedDonor(t, db, "donor@example.com")
	other := seedDonor(t, db, "other@example.com")
	seedStreaming(t, db, "a1b2c3d4", donor.ID)
	seedStreaming(t, db, "x9y8z7w6", donor.ID)

	statuses := []model.DonationStatus{
		model.DonationStatusPending,
		model.DonationStatusNeedConfirmation,
		model.DonationStatusSuccess,
	}
	for i, status := range statuses {
		_, err := repo.Create(ctx, &model.Donation{
			UserID:        donor.ID,
			StreamingCode: "a1b2c3d4",
			Amount:        int64((i + 1) * 1000),
			PaymentType:   model.PaymentTypeManual,
			Status:        status,
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &model.Donation{
		UserID:        other.ID,
		StreamingCode: "x9y8z7w6",
		Amount:        5000,
		PaymentType:   model.PaymentTypeManual,
		Status:        model.DonationStatusSuccess,
	})
	require.NoError(t, err)

	t.Run("filter by streaming code", func(t *testing.T) {
		code := "a1b2c3d4"
		items, total, err := repo.List(ctx, model.DonationFilter{StreamingCode: &code})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 3)
	})

	t.Run("filter by status set", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.DonationFilter{
			Statuses: []model.DonationStatus{model.DonationStatusSuccess},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("filter by user", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.DonationFilter{UserID: &other.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, other.ID, items[0].UserID)
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.DonationFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, items, 2)
	})
}
