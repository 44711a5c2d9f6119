package chainsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/grievancechain/grievance_backend/config"
	"github.com/sirupsen/logrus"
)

const listenerLockKey = "chainsync:listener"
const listenerLockTTL = 30 * time.Second

func createdTopicName() string {
	if v := strings.TrimSpace(os.Getenv("LEDGER_EVENTS_TOPIC_CREATED")); v != "" {
		return v
	}
	return "ledger-record-created"
}

func statusTopicName() string {
	if v := strings.TrimSpace(os.Getenv("LEDGER_EVENTS_TOPIC_STATUS")); v != "" {
		return v
	}
	return "ledger-status-changed"
}

// Listener owns the ledger event subscriptions: one persistent pull
// subscription per event kind, running for the process lifetime. It is an
// explicit lifecycle object; nothing starts at module load. A redis lock
// keeps a single instance actively projecting, as a best-effort optimization
// only: correctness does not depend on it, the DB-side confirmation
// idempotency remains the authority.
type Listener struct {
	logger *logrus.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lock    *redislock.Lock
	started bool
}

func NewListener(logger *logrus.Logger) *Listener {
	return &Listener{logger: logger}
}

// Start opens the subscriptions and begins receiving. It returns after the
// receive loops are running; delivery failures inside the loops nack for
// redelivery and never stop the listener.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.New("listener already started")
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, listenerLockKey, listenerLockTTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(2*time.Second), 5),
		})
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				return errors.New("another listener instance holds the subscription lock")
			}
			return err
		}
		l.lock = lock
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		l.releaseLock()
		return err
	}

	createdSub, err := l.ensureSubscription(client, createdTopicName())
	if err != nil {
		l.releaseLock()
		return err
	}
	statusSub, err := l.ensureSubscription(client, statusTopicName())
	if err != nil {
		l.releaseLock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.started = true

	if l.lock != nil {
		l.wg.Add(1)
		go l.refreshLock(runCtx)
	}

	l.wg.Add(2)
	go l.receive(runCtx, createdSub, l.handleRecordCreated)
	go l.receive(runCtx, statusSub, l.handleStatusChanged)

	l.logger.WithFields(logrus.Fields{
		"module":        "chainsync",
		"created_topic": createdTopicName(),
		"status_topic":  statusTopicName(),
	}).Info("ledger event listener started")
	return nil
}

// Stop cancels the receive loops and waits for them to drain.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return
	}
	l.cancel()
	l.wg.Wait()
	l.releaseLock()
	l.started = false
	l.logger.WithFields(logrus.Fields{"module": "chainsync"}).Info("ledger event listener stopped")
}

func (l *Listener) releaseLock() {
	if l.lock != nil {
		_ = l.lock.Release(context.Background())
		l.lock = nil
	}
}

func (l *Listener) refreshLock(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(listenerLockTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.lock.Refresh(ctx, listenerLockTTL, nil); err != nil {
				l.logger.WithFields(logrus.Fields{
					"module": "chainsync",
				}).Warn("listener lock refresh failed: " + err.Error())
			}
		}
	}
}

func (l *Listener) ensureSubscription(client *pubsub.Client, topicName string) (*pubsub.Subscription, error) {
	subName := topicName + "-projector"
	if config.BoolFromEnv("LEDGER_EVENTS_CREATE_TOPICS", false) {
		topic, err := config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return nil, err
		}
		return config.CreateSubscriptionIfNotExists(client, subName, topic)
	}
	return client.Subscription(subName), nil
}

func (l *Listener) receive(ctx context.Context, sub *pubsub.Subscription, handler func(context.Context, *pubsub.Message)) {
	defer l.wg.Done()
	sub.ReceiveSettings.MaxOutstandingMessages = config.IntFromEnv("LEDGER_EVENTS_MAX_OUTSTANDING", 10)
	if err := sub.Receive(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		config.LogError(l.logger, "listener.go", "receive", "subscription "+sub.ID(), nil, err)
	}
}

func (l *Listener) handleRecordCreated(ctx context.Context, msg *pubsub.Message) {
	ev, err := DecodeRecordCreated(msg.Data)
	if err != nil {
		config.LogError(l.logger, "listener.go", "handleRecordCreated", "unmarshal ledger event", string(msg.Data), err)
		// Malformed payloads never become parseable; ack to avoid a poison loop.
		msg.Ack()
		return
	}
	if err := ProcessRecordCreated(ctx, l.logger, ev); err != nil {
		l.logger.WithFields(logrus.Fields{
			"module":     "chainsync",
			"tx_hash":    ev.TxHash,
			"ledger_id":  ev.LedgerId,
			"message_id": msg.ID,
		}).Error("record created projection failed: " + err.Error())
		msg.Nack()
		return
	}
	msg.Ack()
}

func (l *Listener) handleStatusChanged(ctx context.Context, msg *pubsub.Message) {
	ev, err := DecodeStatusChanged(msg.Data)
	if err != nil {
		config.LogError(l.logger, "listener.go", "handleStatusChanged", "unmarshal ledger event", string(msg.Data), err)
		msg.Ack()
		return
	}
	if err := ProcessStatusChanged(ctx, l.logger, ev); err != nil {
		l.logger.WithFields(logrus.Fields{
			"module":     "chainsync",
			"tx_hash":    ev.TxHash,
			"ledger_id":  ev.LedgerId,
			"message_id": msg.ID,
		}).Error("status changed projection failed: " + err.Error())
		msg.Nack()
		return
	}
	msg.Ack()
}

// PushHandler serves Pub/Sub push deliveries for deployments that cannot hold
// a pull subscription open. The event kind rides in the message attributes.
// 2xx acks; 5xx asks Pub/Sub to retry (and eventually route to a DLQ).
func PushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(http.StatusNoContent)
			return
		}

		kind := envelope.Message.Attributes["event_kind"]
		switch kind {
		case EventKindRecordCreated:
			ev, err := DecodeRecordCreated(envelope.Message.Data)
			if err != nil {
				c.Status(http.StatusNoContent)
				return
			}
			if err := ProcessRecordCreated(c.Request.Context(), logger, ev); err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
		case EventKindStatusChanged:
			ev, err := DecodeStatusChanged(envelope.Message.Data)
			if err != nil {
				c.Status(http.StatusNoContent)
				return
			}
			if err := ProcessStatusChanged(c.Request.Context(), logger, ev); err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
		default:
			logger.WithFields(logrus.Fields{
				"module":     "chainsync",
				"event_kind": kind,
			}).Warn("push delivery with unknown event kind; dropping")
		}
		c.Status(http.StatusNoContent)
	}
}
