package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/nimasrn/donation-gateway/pkg/pg"
	"github.com/nimasrn/donation-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.UserEntity{},
		&repository.StreamingEntity{},
		&repository.DonationEntity{},
		&repository.CommentEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter("test", "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestUser(t *testing.T, db *pg.DB, email, password string) *repository.UserEntity {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &repository.UserEntity{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
	}
	err = db.Write(ctx).Create(user).Error
	require.NoError(t, err)
	return user
}

func CreateTestStreaming(t *testing.T, db *pg.DB, code string, userID int64) *repository.StreamingEntity {
	ctx := context.Background()
	now := time.Now()
	streaming := &repository.StreamingEntity{
		Code:              code,
		UserID:            userID,
		DateStart:         now,
		DateEnd:           now.Add(3 * time.Hour),
		Status:            "live",
		BankName:          "BCA",
		BankHolderName:    "Test Streamer",
		BankAccountNumber: "1234567890",
	}
	err := db.Write(ctx).Create(streaming).Error
	require.NoError(t, err)
	return streaming
}

func CreateTestDonation(t *testing.T, db *pg.DB, userID int64, streamingCode, paymentType, status string, amount int64) *repository.DonationEntity {
	ctx := context.Background()
	donation := &repository.DonationEntity{
		UserID:        userID,
		StreamingCode: streamingCode,
		Amount:        amount,
		PaymentType:   paymentType,
		Status:        status,
	}
	err := db.Write(ctx).Create(donation).Error
	require.NoError(t, err)
	return donation
}

func CreateTestComment(t *testing.T, db *pg.DB, userID int64, streamingCode, comment string) *repository.CommentEntity {
	ctx := context.Background()
	c := &repository.CommentEntity{
		UserID:        userID,
		StreamingCode: streamingCode,
		Comment:       comment,
	}
	err := db.Write(ctx).Create(c).Error
	require.NoError(t, err)
	return c
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
