package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a donation does not exist.
	ErrNotFound = errors.New("donation not found")
	// ErrStaleStatus is returned when a guarded transition finds the row in a
	// different status than the transition requires.
	ErrStaleStatus = errors.New("donation status does not permit transition")
)

type DonationRepository struct {
	*pg.DB
}

func NewDonationRepository(db *pg.DB) *DonationRepository {
	return &DonationRepository{
		db,
	}
}

func (r *DonationRepository) Create(ctx context.Context, d *model.Donation) (*model.Donation, error) {
	entity := toDonationEntity(d)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDonationModel(entity), nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id int64) (*model.Donation, error) {
	var entity DonationEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDonationModel(&entity), nil
}

// GetByPaymentID looks a donation up by its gateway transaction id. This is
// the only correlation key webhooks are allowed to use.
func (r *DonationRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.Donation, error) {
	var entity DonationEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("User").
		Where("payment_id = ?", paymentID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDonationModel(&entity), nil
}

func (r *DonationRepository) List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&DonationEntity{})

	if f.StreamingCode != nil && *f.StreamingCode != "" {
		q = q.Where("streaming_code = ?", *f.StreamingCode)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*DonationEntity
	if err := q.Preload("User").Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toDonationModels(entities), total, nil
}

// SetGatewayReference stores the charge result on an instant donation. The
// gateway reference is written once and never changed afterwards.
func (r *DonationRepository) SetGatewayReference(ctx context.Context, id int64, paymentID, vaNumber, bankCode string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&DonationEntity{}).
		Where("id = ? AND payment_id IS NULL", id).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"va_number":  vaNumber,
			"bank_code":  bankCode,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkUpdateFailureReason(ctx, id)
	}
	return nil
}

// SetProofURL attaches an uploaded proof to a manual donation. Status is not
// touched, confirmation stays with the campaign owner.
func (r *DonationRepository) SetProofURL(ctx context.Context, id int64, url string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&DonationEntity{}).
		Where("id = ?", id).
		Update("proof_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus applies a guarded status transition as a single conditional
// UPDATE. Concurrent confirm/reject or duplicate webhook deliveries race on
// the WHERE clause and exactly one of them wins; the losers get
// ErrStaleStatus (or ErrNotFound) and must inspect the current row to decide
// whether the outcome is an idempotent no-op.
func (r *DonationRepository) UpdateStatus(ctx context.Context, id int64, from, to model.DonationStatus, successAt *time.Time) error {
	updates := map[string]interface{}{
		"status": string(to),
	}
	if successAt != nil {
		updates["success_at"] = *successAt
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&DonationEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkUpdateFailureReason(ctx, id)
	}
	return nil
}

// checkUpdateFailureReason determines why a conditional update matched no rows.
func (r *DonationRepository) checkUpdateFailureReason(ctx context.Context, id int64) error {
	var entity DonationEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return ErrStaleStatus
}
