// Package notify delivers booking notifications to Telegram chats.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"camrent/internal/events"
	"camrent/internal/models"
	"camrent/internal/pricing"
	"camrent/internal/report"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TelegramSender is satisfied by *tgbotapi.BotAPI.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BookingReader loads a booking with its item name.
type BookingReader interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
}

// Config controls delivery.
type Config struct {
	ChatIDs       []int64
	RatePerSecond float64
	QueueSize     int
	MaxRetries    int
	RetryDelay    time.Duration
	Footer        string
	Location      *time.Location
}

// Notifier queues messages and sends them from a single worker so that
// request handlers never wait on Telegram.
type Notifier struct {
	bot      TelegramSender
	bookings BookingReader
	cfg      Config
	limiter  *rate.Limiter
	queue    chan string
	metrics  *Metrics
	logger   *zerolog.Logger
}

func NewNotifier(bot TelegramSender, bookings BookingReader, cfg Config, metrics *Metrics, logger *zerolog.Logger) *Notifier {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Notifier{
		bot:      bot,
		bookings: bookings,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		queue:    make(chan string, cfg.QueueSize),
		metrics:  metrics,
		logger:   logger,
	}
}

// Subscribe hooks the notifier into booking lifecycle events.
func (n *Notifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.BookingCreated, n.onCreated)
	bus.Subscribe(events.BookingCompleted, n.onLifecycle("returned"))
	bus.Subscribe(events.BookingDeleted, n.onLifecycle("deleted"))
}

func (n *Notifier) onCreated(e events.Event) error {
	var p events.BookingPayload
	if err := e.Decode(&p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := n.bookings.GetBooking(ctx, p.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %d: %w", p.BookingID, err)
	}
	if b == nil {
		// deleted before the event was handled
		return nil
	}

	n.Enqueue(report.Summary(*b, pricing.None, n.cfg.Footer, n.cfg.Location))
	return nil
}

func (n *Notifier) onLifecycle(verb string) events.EventHandler {
	return func(e events.Event) error {
		var p events.BookingPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		n.Enqueue(fmt.Sprintf("Booking #%d (%s) %s", p.BookingID, p.Customer, verb))
		return nil
	}
}

// Enqueue adds a message without blocking. Messages are dropped when the queue is full.
func (n *Notifier) Enqueue(text string) bool {
	select {
	case n.queue <- text:
		n.metrics.setQueueSize(len(n.queue))
		return true
	default:
		n.metrics.incSent("dropped")
		n.logger.Warn().Int("queue_size", cap(n.queue)).Msg("Notification queue full, dropping message")
		return false
	}
}

// Run delivers queued messages until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info().Int("chats", len(n.cfg.ChatIDs)).Msg("Notifier started")
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			n.metrics.setQueueSize(len(n.queue))
			start := time.Now()
			for _, chatID := range n.cfg.ChatIDs {
				if err := n.sendWithRetry(ctx, chatID, text); err != nil {
					if ctx.Err() != nil {
						return
					}
					n.metrics.incSent("failed")
					n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send notification")
					continue
				}
				n.metrics.incSent("sent")
			}
			n.metrics.observe(time.Since(start).Seconds())
		}
	}
}

func (n *Notifier) sendWithRetry(ctx context.Context, chatID int64, text string) error {
	var lastErr error
	for attempt := 0; attempt <= n.cfg.MaxRetries; attempt++ {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		_, err := n.bot.Send(tgbotapi.NewMessage(chatID, text))
		if err == nil {
			return nil
		}
		lastErr = err

		wait := n.cfg.RetryDelay
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) {
			switch tgErr.Code {
			case 429:
				if tgErr.RetryAfter > 0 {
					wait = time.Duration(tgErr.RetryAfter) * time.Second
				}
			case 400, 403:
				// chat gone or message rejected; retrying won't help
				return err
			}
		}

		if attempt < n.cfg.MaxRetries {
			n.metrics.incRetries()
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
