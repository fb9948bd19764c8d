package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Config параметры подключения к брокеру
type Config struct {
	URL            string
	Queue          string
	Prefetch       int
	HandlerTimeout time.Duration
}

// publisher отправка ответа (*amqp.Channel)
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Server принимает команды из очереди RabbitMQ и отвечает в reply_to
type Server struct {
	cfg        Config
	dispatcher *Dispatcher
	metrics    Metrics
	logger     Logger
}

// NewServer создает RPC сервер
func NewServer(cfg Config, dispatcher *Dispatcher, metrics Metrics, logger Logger) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run подключается к брокеру и обрабатывает команды до отмены ctx
// Обрыв соединения приводит к переподключению с экспоненциальной задержкой
func (s *Server) Run(ctx context.Context) error {
	backoff := minBackoff

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := amqp.Dial(s.cfg.URL)
		if err != nil {
			s.logger.Warn("RPC: failed to dial broker: %v, retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		err = s.consume(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("RPC: consume loop ended: %v, reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (s *Server) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(s.cfg.Prefetch, 0, false); err != nil {
		s.logger.Warn("RPC: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(s.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(s.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	s.logger.Info("RPC: listening on queue %s", s.cfg.Queue)

	return s.serve(ctx, ch, msgs)
}

// serve обрабатывает сообщения параллельно, не более Prefetch одновременно.
// Перед возвратом дожидается обработки уже полученных сообщений
func (s *Server) serve(ctx context.Context, pub publisher, msgs <-chan amqp.Delivery) error {
	var g errgroup.Group
	g.SetLimit(max(s.cfg.Prefetch, 1))
	defer func() { _ = g.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			g.Go(func() error {
				s.handleDelivery(ctx, pub, d)
				return nil
			})
		}
	}
}

// handleDelivery выполняет команду и подтверждает сообщение
// Сообщение подтверждается всегда: ошибка возвращается отправителю в ответе
func (s *Server) handleDelivery(ctx context.Context, pub publisher, d amqp.Delivery) {
	defer func() {
		if err := d.Ack(false); err != nil {
			s.logger.Error("RPC: failed to ack message: %v", err)
		}
	}()

	var (
		env  Envelope
		resp Response
	)

	if err := json.Unmarshal(d.Body, &env); err != nil {
		s.logger.Warn("RPC: invalid command envelope: %v", err)
		resp = errorResponse(http.StatusBadRequest, msgInvalidPayload)
	} else {
		handlerCtx := ctx
		if s.cfg.HandlerTimeout > 0 {
			var cancel context.CancelFunc
			handlerCtx, cancel = context.WithTimeout(ctx, s.cfg.HandlerTimeout)
			defer cancel()
		}
		resp = s.dispatcher.Dispatch(handlerCtx, env)
	}

	if s.metrics != nil {
		s.metrics.ObserveRPCCommand(env.Pattern, resp.OK)
	}

	s.reply(ctx, pub, d, resp)
}

func (s *Server) reply(ctx context.Context, pub publisher, d amqp.Delivery, resp Response) {
	if d.ReplyTo == "" {
		return
	}

	body, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("RPC: failed to marshal response: %v", err)
		return
	}

	correlationID := d.CorrelationId
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	err = pub.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		s.logger.Error("RPC: failed to publish response to %s: %v", d.ReplyTo, err)
	}
}

// sleep ждет d или отмены ctx, false означает отмену
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
