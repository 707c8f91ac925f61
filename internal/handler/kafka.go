package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SergeyBogomolovv/orders-service/internal/config"
	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-service/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Messages are routed by the value of the pattern header.
const (
	PatternHeader       = "pattern"
	PatternCreateOrder  = "create.order"
	PatternFindAll      = "find.all.order"
	PatternFindOne      = "find.one.order"
	PatternChangeStatus = "change.status.order"

	// ReplyToHeader names the topic the result is published to.
	ReplyToHeader       = "reply-to"
	CorrelationIDHeader = "correlation-id"

	errorHeader = "error"
)

var ErrUnknownPattern = errors.New("unknown message pattern")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaHandler struct {
	writer   messageWriter
	reader   messageReader
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, svc OrderService) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           cfg.BatchTimeout,
			AllowAutoTopicCreation: true,
		},
		validate: newValidator(),
		svc:      svc,
	}
}

// Consume reads messages until ctx is done. The result of a message with a
// reply-to header is published there, errors included. A failed message without
// one is written to the DLQ. Every message is committed, even when its reply or
// DLQ write fails: a redelivered create.order would store a second order.
func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			}
			h.logger.Error("failed to fetch message", slog.Any("error", err))
			continue
		}

		result, err := h.process(ctx, m)
		if err != nil {
			h.logger.Error("failed to handle message",
				slog.String("pattern", header(m, PatternHeader)),
				slog.Int64("offset", m.Offset),
				slog.Any("error", err),
			)
		}

		// kafka.Writer retries on its own, a failure here is final
		if err := h.respond(ctx, m, result, err); err != nil {
			responseErrors.Inc()
			h.logger.Error("failed to write response, dropping it",
				slog.String("pattern", header(m, PatternHeader)),
				slog.Int64("offset", m.Offset),
				slog.String("reply_to", header(m, ReplyToHeader)),
				slog.Any("error", err),
			)
		}

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			commitErrors.Inc()
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) respond(ctx context.Context, m kafka.Message, result any, err error) error {
	if reply, ok := replyMessage(m, result, err); ok {
		return h.writer.WriteMessages(ctx, reply)
	}
	if err != nil {
		if err := h.WriteToDLQ(ctx, m, err); err != nil {
			return err
		}
		commandsDLQ.Inc()
	}
	return nil
}

func (h *kafkaHandler) process(ctx context.Context, m kafka.Message) (any, error) {
	p := header(m, PatternHeader)

	commandsInProgress.Inc()
	defer commandsInProgress.Dec()

	start := time.Now()
	result, err := h.handle(ctx, m)
	commandProcessingDuration.WithLabelValues(p).Observe(time.Since(start).Seconds())

	if err != nil {
		commandsFailed.WithLabelValues(p).Inc()
		return nil, err
	}
	commandsProcessed.WithLabelValues(p).Inc()
	return result, nil
}

func (h *kafkaHandler) handle(ctx context.Context, m kafka.Message) (any, error) {
	switch p := header(m, PatternHeader); p {
	case PatternCreateOrder:
		return h.handleCreateOrder(ctx, m)
	case PatternFindAll:
		return h.handleFindAll(ctx, m)
	case PatternFindOne:
		return h.handleFindOne(ctx, m)
	case PatternChangeStatus:
		return h.handleChangeStatus(ctx, m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, p)
	}
}

func (h *kafkaHandler) handleCreateOrder(ctx context.Context, m kafka.Message) (any, error) {
	var req CreateOrderRequest
	if err := h.decode(m, &req); err != nil {
		return nil, err
	}

	order, err := h.svc.CreateOrder(ctx, req.ToEntity())
	if err != nil {
		return nil, err
	}

	h.logger.DebugContext(ctx, "order created from message", slog.String("order_id", order.ID.String()))
	return OrderEntityToJSON(order), nil
}

func (h *kafkaHandler) handleFindAll(ctx context.Context, m kafka.Message) (any, error) {
	var query ListOrdersQuery
	if err := h.decode(m, &query); err != nil {
		return nil, err
	}

	page, err := h.svc.ListOrders(ctx, query.ToEntity())
	if err != nil {
		return nil, err
	}
	return PageEntityToJSON(page), nil
}

func (h *kafkaHandler) handleFindOne(ctx context.Context, m kafka.Message) (any, error) {
	var query FindOrderQuery
	if err := h.decode(m, &query); err != nil {
		return nil, err
	}

	order, err := h.svc.GetOrder(ctx, uuid.MustParse(query.ID))
	if err != nil {
		return nil, err
	}
	return OrderEntityToJSON(order), nil
}

func (h *kafkaHandler) handleChangeStatus(ctx context.Context, m kafka.Message) (any, error) {
	var cmd ChangeStatusCommand
	if err := h.decode(m, &cmd); err != nil {
		return nil, err
	}

	order, err := h.svc.ChangeStatus(ctx, uuid.MustParse(cmd.ID), entities.Status(cmd.Status))
	if err != nil {
		return nil, err
	}
	return OrderEntityToJSON(order), nil
}

// decode fails with entities.ErrInvalidOrder so replies carry a 400.
func (h *kafkaHandler) decode(m kafka.Message, v any) error {
	if err := json.Unmarshal(m.Value, v); err != nil {
		return entities.NewError(entities.ErrInvalidOrder, "invalid message payload", err)
	}
	if err := h.validate.Struct(v); err != nil {
		return entities.NewError(entities.ErrInvalidOrder, "invalid message data", err)
	}
	return nil
}

// WriteToDLQ copies m to "<topic>-dlq" with the failure reason in a header.
func (h *kafkaHandler) WriteToDLQ(ctx context.Context, m kafka.Message, reason error) error {
	return h.writer.WriteMessages(ctx, dlqMessage(m, reason))
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.writer.Close()
}

func dlqMessage(m kafka.Message, reason error) kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers)+1)
	headers = append(headers, m.Headers...)
	headers = append(headers, kafka.Header{Key: errorHeader, Value: []byte(reason.Error())})

	return kafka.Message{
		Topic:   fmt.Sprintf("%s-dlq", m.Topic),
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
	}
}

// replyMessage builds the answer to m, ok is false when nobody waits for one.
func replyMessage(m kafka.Message, result any, err error) (kafka.Message, bool) {
	topic := header(m, ReplyToHeader)
	if topic == "" {
		return kafka.Message{}, false
	}

	headers := []kafka.Header{{Key: PatternHeader, Value: []byte(header(m, PatternHeader))}}
	if id := header(m, CorrelationIDHeader); id != "" {
		headers = append(headers, kafka.Header{Key: CorrelationIDHeader, Value: []byte(id)})
	}

	if err != nil {
		result = utils.ErrorResponse{Message: entities.Message(err), Status: entities.StatusCode(err)}
		headers = append(headers, kafka.Header{Key: errorHeader, Value: []byte(err.Error())})
	}

	value, mErr := json.Marshal(result)
	if mErr != nil {
		value, _ = json.Marshal(utils.ErrorResponse{Message: "internal server error", Status: http.StatusInternalServerError})
	}

	return kafka.Message{
		Topic:   topic,
		Key:     m.Key,
		Value:   value,
		Headers: headers,
	}, true
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
