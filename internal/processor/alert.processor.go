package processor

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/nimasrn/donation-gateway/internal/queue"
	"github.com/nimasrn/donation-gateway/pkg/logger"
	"github.com/nimasrn/donation-gateway/pkg/prom"
	"github.com/nimasrn/donation-gateway/pkg/redis"
)

// AlertChannelPrefix is the pub/sub channel namespace overlay clients
// subscribe to, one channel per streaming code.
const AlertChannelPrefix = "alerts:"

type DonationAlertProcessor struct {
	redis       redis.RedisAdapter
	idempotency *IdempotencyService
}

func NewDonationAlertProcessor(redisAdapter redis.RedisAdapter, idempotency *IdempotencyService) *DonationAlertProcessor {
	return &DonationAlertProcessor{
		redis:       redisAdapter,
		idempotency: idempotency,
	}
}

func (p *DonationAlertProcessor) GetType() string {
	return "donation-alert"
}

// Process delivers one settled-donation event to the streaming's alert
// channel with idempotency guarantees.
func (p *DonationAlertProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	// Step 1: Parse event
	var event model.DonationSettledEvent
	err := json.Unmarshal(queueMessage.Data, &event)
	if err != nil {
		logger.Error("Failed to unmarshal settled event", "error", err)
		return err // Return error to trigger DLQ move
	}

	eventID := strconv.FormatInt(event.DonationID, 10)

	// Step 2: Acquire processing lock and check idempotency
	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, eventID)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// Alert already delivered - ACK to remove from queue
			logger.Info("Alert already delivered, skipping", "donation_id", eventID)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			// Max retries exceeded - ACK to move to DLQ
			logger.Error("Max retries exceeded for alert", "donation_id", eventID)
			return nil
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer is delivering - NACK to retry later
			logger.Info("Lock held by another consumer, will retry", "donation_id", eventID)
			return errors.New("lock held by another consumer")
		}
		logger.Error("Failed to acquire lock", "donation_id", eventID, "error", err)
		return err
	}

	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	logger.Info("Delivering donation alert",
		"donation_id", eventID,
		"streaming_code", event.StreamingCode,
		"amount", event.Amount,
		"retry_count", procCtx.RetryCount,
		"is_retry", procCtx.IsRetry)

	// Step 3: Publish the alert to the streaming's channel
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := AlertChannelPrefix + event.StreamingCode
	if err := p.redis.Client().Publish(ctx, channel, payload).Err(); err != nil {
		logger.Error("Failed to publish alert", "donation_id", eventID, "channel", channel, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "donation_id", eventID, "error", markErr)
		}
		return err // NACK to retry from queue
	}

	// Step 4: Record alert latency since settlement
	prom.AddDonationSettlementDuration(
		time.Since(event.SettledAt).Seconds(),
		string(event.PaymentType),
	)

	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		logger.Error("Failed to mark success", "donation_id", eventID, "error", markErr)
		// Continue - alert was delivered
	}

	return nil // ACK message
}
