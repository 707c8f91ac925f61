package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-service/internal/handler"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
)

type options struct {
	brokers string
	topic   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "order-generator",
		Short:         "Publish order commands and generate API load",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.brokers, "brokers", "localhost:9092", "comma separated Kafka brokers")
	cmd.PersistentFlags().StringVar(&opts.topic, "topic", "orders.commands", "commands topic")

	cmd.AddCommand(newCreateCmd(opts), newStatusCmd(opts), newLoadCmd())
	return cmd
}

func newCreateCmd(opts *options) *cobra.Command {
	var (
		interval     time.Duration
		count        int
		maxItems     int
		maxProductID int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish random create.order commands",
		Long:  "Publish a create.order command every interval until count commands are sent or the process is interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			writer := newWriter(opts)
			defer writer.Close()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for sent := 0; count <= 0 || sent < count; {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}

				m, err := createOrderMessage(randomItems(maxItems, maxProductID))
				if err != nil {
					return err
				}
				if err := writer.WriteMessages(ctx, m); err != nil {
					return fmt.Errorf("failed to publish command: %w", err)
				}

				sent++
				fmt.Fprintf(cmd.OutOrStdout(), "create.order sent: %s\n", m.Value)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "delay between commands")
	cmd.Flags().IntVar(&count, "count", 0, "number of commands, 0 means no limit")
	cmd.Flags().IntVar(&maxItems, "max-items", 3, "maximum lines per order")
	cmd.Flags().Int64Var(&maxProductID, "max-product-id", 20, "product ids are drawn from 1..max-product-id")

	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Publish one change.status.order command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := changeStatusMessage(args[0], args[1])
			if err != nil {
				return err
			}

			writer := newWriter(opts)
			defer writer.Close()

			if err := writer.WriteMessages(cmd.Context(), m); err != nil {
				return fmt.Errorf("failed to publish command: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "change.status.order sent: %s\n", m.Value)
			return nil
		},
	}
}

func newWriter(opts *options) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(opts.brokers, ",")...),
		Topic:                  opts.topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func randomItems(maxItems int, maxProductID int64) []handler.CreateOrderItem {
	items := make([]handler.CreateOrderItem, gofakeit.Number(1, max(maxItems, 1)))
	for i := range items {
		items[i] = handler.CreateOrderItem{
			ProductID: int64(gofakeit.Number(1, int(max(maxProductID, 1)))),
			Quantity:  gofakeit.Number(1, 5),
		}
	}
	return items
}

func createOrderMessage(items []handler.CreateOrderItem) (kafka.Message, error) {
	value, err := json.Marshal(handler.CreateOrderRequest{Items: items})
	if err != nil {
		return kafka.Message{}, err
	}
	return command(handler.PatternCreateOrder, value), nil
}

func changeStatusMessage(id, status string) (kafka.Message, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("invalid order id %q: %w", id, err)
	}
	s, err := entities.ParseStatus(strings.ToUpper(status))
	if err != nil {
		return kafka.Message{}, err
	}

	value, err := json.Marshal(handler.ChangeStatusCommand{ID: orderID.String(), Status: s.String()})
	if err != nil {
		return kafka.Message{}, err
	}
	return command(handler.PatternChangeStatus, value), nil
}

func command(pattern string, value []byte) kafka.Message {
	return kafka.Message{
		Key:     []byte(uuid.NewString()),
		Value:   value,
		Headers: []kafka.Header{{Key: handler.PatternHeader, Value: []byte(pattern)}},
	}
}
