package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/platform/rabbitmq"
)

const persistTimeout = 5 * time.Second

type ChatLogStore interface {
	Append(ctx context.Context, entry *model.ChatLog) error
}

// ChatLogPersistWorker drains the chat log queue into the database.
type ChatLogPersistWorker struct {
	conn      *amqp.Connection
	store     ChatLogStore
	queueName string
	log       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewChatLogPersistWorker(conn *amqp.Connection, store ChatLogStore, queueName string, log *logger.Logger) *ChatLogPersistWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &ChatLogPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log.With("worker", "chat_log_persist"),
	}
}

func (w *ChatLogPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(32, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.log.Error("persist chat log failed", "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.Info("worker started", "queue", w.queueName)
	return nil
}

func (w *ChatLogPersistWorker) handle(ctx context.Context, body []byte) error {
	var entry model.ChatLog
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("decode chat log failed: %w", err)
	}
	// IDs are assigned by the database.
	entry.ID = 0
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	persistCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	return w.store.Append(persistCtx, &entry)
}

func (w *ChatLogPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
