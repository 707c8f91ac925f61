package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLoadCmd() *cobra.Command {
	var (
		baseURL     string
		orderID     string
		concurrency int
		pause       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Send read requests to the HTTP API",
		Long:  "Send batches of GET requests for one known order, random unknown orders and the first page of the list until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := &http.Client{Timeout: 5 * time.Second}
			base := strings.TrimRight(baseURL, "/")

			for ctx.Err() == nil {
				var wg sync.WaitGroup
				for range rand.IntN(max(concurrency, 1)) + 1 {
					wg.Go(func() {
						url := base + loadPath(orderID)
						status, err := get(ctx, client, url)
						if err != nil {
							fmt.Fprintln(cmd.ErrOrStderr(), "request failed:", err)
							return
						}
						fmt.Fprintln(cmd.OutOrStdout(), "GET", url, "->", status)
					})
				}
				wg.Wait()

				select {
				case <-ctx.Done():
				case <-time.After(pause):
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&orderID, "order-id", "", "known order id, random ids are used when empty")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "maximum requests per batch")
	cmd.Flags().DurationVar(&pause, "pause", 20*time.Millisecond, "delay between batches")

	return cmd
}

// loadPath mostly hits the known order, sometimes a missing one or the list.
func loadPath(orderID string) string {
	switch n := rand.IntN(5); {
	case n == 0:
		return "/orders?page=1&limit=10"
	case n == 1 || orderID == "":
		return "/orders/" + uuid.NewString()
	default:
		return "/orders/" + orderID
	}
}

func get(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.Status, nil
}
