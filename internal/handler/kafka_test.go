package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	mocks "github.com/SergeyBogomolovv/orders-service/internal/handler/mocks"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func command(pattern, value string) kafka.Message {
	return kafka.Message{
		Topic:   "orders.commands",
		Value:   []byte(value),
		Headers: []kafka.Header{{Key: PatternHeader, Value: []byte(pattern)}},
	}
}

func TestKafkaHandler_Handle(t *testing.T) {
	id := uuid.New()
	serviceErr := entities.NewError(entities.ErrProductNotFound, "products not found: [7]", nil)

	testCases := []struct {
		name         string
		message      kafka.Message
		mockBehavior func(svc *mocks.MockOrderService)
		wantErr      error
	}{
		{
			name:    "create order",
			message: command(PatternCreateOrder, `{"items":[{"productId":1,"quantity":2}]}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					CreateOrder(mock.Anything, []entities.NewOrderItem{{ProductID: 1, Quantity: 2}}).
					Return(entities.Order{ID: id}, nil).Once()
			},
		},
		{
			name:    "create order fails in service",
			message: command(PatternCreateOrder, `{"items":[{"productId":7,"quantity":1}]}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(entities.Order{}, serviceErr).Once()
			},
			wantErr: entities.ErrProductNotFound,
		},
		{
			name:         "create order without items",
			message:      command(PatternCreateOrder, `{"items":[]}`),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name:         "create order with broken payload",
			message:      command(PatternCreateOrder, `{`),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name:    "change status",
			message: command(PatternChangeStatus, `{"id":"`+id.String()+`","status":"CANCELLED"}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().
					ChangeStatus(mock.Anything, id, entities.StatusCancelled).
					Return(entities.Order{ID: id, Status: entities.StatusCancelled}, nil).Once()
			},
		},
		{
			name:         "change status with invalid id",
			message:      command(PatternChangeStatus, `{"id":"42","status":"CANCELLED"}`),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name:         "change status to unknown status",
			message:      command(PatternChangeStatus, `{"id":"`+id.String()+`","status":"LOST"}`),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name:    "find one",
			message: command(PatternFindOne, `{"id":"`+id.String()+`"}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().GetOrder(mock.Anything, id).Return(entities.Order{ID: id}, nil).Once()
			},
		},
		{
			name:    "find one not found",
			message: command(PatternFindOne, `{"id":"`+id.String()+`"}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().GetOrder(mock.Anything, id).
					Return(entities.Order{}, entities.NewError(entities.ErrOrderNotFound, "Order with id "+id.String()+" not found", nil)).Once()
			},
			wantErr: entities.ErrOrderNotFound,
		},
		{
			name:    "find all with defaults",
			message: command(PatternFindAll, `{}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().ListOrders(mock.Anything, entities.OrderFilter{Page: 1, Limit: 10}).
					Return(entities.OrderPage{}, nil).Once()
			},
		},
		{
			name:    "find all with zero limit",
			message: command(PatternFindAll, `{"status":"DELIVERED","page":1,"limit":0}`),
			mockBehavior: func(svc *mocks.MockOrderService) {
				delivered := entities.StatusDelivered
				svc.EXPECT().ListOrders(mock.Anything, entities.OrderFilter{Status: &delivered, Page: 1, Limit: 0}).
					Return(entities.OrderPage{}, entities.NewError(entities.ErrInvalidPagination, "limit must be positive", nil)).Once()
			},
			wantErr: entities.ErrInvalidPagination,
		},
		{
			name:         "find all with unknown status",
			message:      command(PatternFindAll, `{"status":"LOST"}`),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      entities.ErrInvalidOrder,
		},
		{
			name:         "unknown pattern",
			message:      command("delete.order", `{}`),
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      ErrUnknownPattern,
		},
		{
			name:         "no pattern header",
			message:      kafka.Message{Value: []byte(`{}`)},
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantErr:      ErrUnknownPattern,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			tc.mockBehavior(svc)

			h := &kafkaHandler{
				logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
				validate: newValidator(),
				svc:      svc,
			}

			_, err := h.process(t.Context(), tc.message)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDLQMessage(t *testing.T) {
	m := command(PatternCreateOrder, `{"items":[]}`)
	m.Key = []byte("key")
	m.Partition = 3
	m.Offset = 42

	got := dlqMessage(m, errors.New("invalid order data"))

	assert.Equal(t, "orders.commands-dlq", got.Topic)
	assert.Equal(t, m.Key, got.Key)
	assert.Equal(t, m.Value, got.Value)
	assert.Zero(t, got.Partition)
	assert.Zero(t, got.Offset)
	assert.Equal(t, PatternCreateOrder, header(got, PatternHeader))
	assert.Contains(t, got.Headers, kafka.Header{Key: errorHeader, Value: []byte("invalid order data")})
	assert.Len(t, m.Headers, 1)
}

func TestReplyMessage(t *testing.T) {
	id := uuid.New()
	m := command(PatternFindOne, `{"id":"`+id.String()+`"}`)

	_, ok := replyMessage(m, Order{ID: id.String()}, nil)
	assert.False(t, ok, "no reply-to header")

	m.Headers = append(m.Headers,
		kafka.Header{Key: ReplyToHeader, Value: []byte("orders.replies")},
		kafka.Header{Key: CorrelationIDHeader, Value: []byte("abc")},
	)

	reply, ok := replyMessage(m, Order{ID: id.String(), Status: "PENDING"}, nil)
	assert.True(t, ok)
	assert.Equal(t, "orders.replies", reply.Topic)
	assert.Equal(t, "abc", header(reply, CorrelationIDHeader))
	assert.Equal(t, PatternFindOne, header(reply, PatternHeader))
	assert.Empty(t, header(reply, errorHeader))
	assert.Contains(t, string(reply.Value), `"id":"`+id.String()+`"`)

	notFound := entities.NewError(entities.ErrOrderNotFound, "Order with id "+id.String()+" not found", nil)
	reply, ok = replyMessage(m, nil, notFound)
	assert.True(t, ok)
	assert.JSONEq(t, `{"message":"Order with id `+id.String()+` not found","status":404}`, string(reply.Value))
	assert.NotEmpty(t, header(reply, errorHeader))
}

type sliceReader struct {
	messages  []kafka.Message
	committed []kafka.Message
}

func (r *sliceReader) FetchMessage(context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *sliceReader) Close() error { return nil }

type recordingWriter struct {
	err     error
	written []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaHandler_Consume(t *testing.T) {
	id := uuid.New()

	withReply := withReplyTo(command(PatternFindOne, `{"id":"`+id.String()+`"}`))

	testCases := []struct {
		name         string
		messages     []kafka.Message
		writerErr    error
		mockBehavior func(svc *mocks.MockOrderService)
		wantTopics   []string
	}{
		{
			name:         "failed message goes to the DLQ",
			messages:     []kafka.Message{command(PatternCreateOrder, `{"items":[]}`)},
			mockBehavior: func(svc *mocks.MockOrderService) {},
			wantTopics:   []string{"orders.commands-dlq"},
		},
		{
			name:     "result goes to reply-to",
			messages: []kafka.Message{withReply},
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().GetOrder(mock.Anything, id).Return(entities.Order{ID: id}, nil).Once()
			},
			wantTopics: []string{"orders.replies"},
		},
		{
			name:         "committed when the DLQ write fails",
			messages:     []kafka.Message{command(PatternCreateOrder, `{`)},
			writerErr:    errors.New("broker unavailable"),
			mockBehavior: func(svc *mocks.MockOrderService) {},
		},
		{
			name:      "created order is not redelivered when the reply fails",
			messages:  []kafka.Message{withReplyTo(command(PatternCreateOrder, `{"items":[{"productId":1,"quantity":1}]}`))},
			writerErr: errors.New("broker unavailable"),
			mockBehavior: func(svc *mocks.MockOrderService) {
				svc.EXPECT().CreateOrder(mock.Anything, mock.Anything).Return(entities.Order{ID: id}, nil).Once()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := mocks.NewMockOrderService(t)
			tc.mockBehavior(svc)

			reader := &sliceReader{messages: append([]kafka.Message(nil), tc.messages...)}
			writer := &recordingWriter{err: tc.writerErr}
			h := &kafkaHandler{
				reader:   reader,
				writer:   writer,
				logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
				validate: newValidator(),
				svc:      svc,
			}

			h.Consume(t.Context())

			assert.Len(t, reader.committed, len(tc.messages))
			topics := make([]string, 0, len(writer.written))
			for _, m := range writer.written {
				topics = append(topics, m.Topic)
			}
			assert.ElementsMatch(t, tc.wantTopics, topics)
		})
	}
}

func withReplyTo(m kafka.Message) kafka.Message {
	m.Headers = append(m.Headers, kafka.Header{Key: ReplyToHeader, Value: []byte("orders.replies")})
	return m
}
