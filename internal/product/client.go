package product

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SergeyBogomolovv/orders-service/internal/config"
	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const validatePath = "/products/validate"

// Client asks the product service which products exist and at what price.
type Client struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL string
	timeout time.Duration
}

func NewClient(logger *slog.Logger, cfg config.ProductService) *Client {
	return &Client{
		logger:  logger.With(slog.String("client", "product")),
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
	}
}

type validateRequest struct {
	IDs []int64 `json:"ids"`
}

type productResponse struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Validate sends the distinct ids in one request. The result order is not
// guaranteed. It fails with entities.ErrValidationUnavailable when the service
// can't be reached in time and with entities.ErrProductNotFound when any id is
// unknown.
func (c *Client) Validate(ctx context.Context, ids []int64) ([]entities.Product, error) {
	ids = lo.Uniq(ids)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	products, err := c.validate(ctx, ids)
	validateDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.WarnContext(ctx, "product validation failed", slog.Any("ids", ids), slog.Any("error", err))
		return nil, err
	}

	return products, nil
}

func (c *Client) validate(ctx context.Context, ids []int64) ([]entities.Product, error) {
	body, err := json.Marshal(validateRequest{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+validatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrValidationUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusBadRequest:
		var e errorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return nil, fmt.Errorf("%w: %s", entities.ErrProductNotFound, e.Message)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", entities.ErrValidationUnavailable, res.StatusCode)
	}

	var payload []productResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", entities.ErrValidationUnavailable, err)
	}

	products := make([]entities.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, entities.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}

	if missing := Missing(ids, products); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", entities.ErrProductNotFound, missing)
	}

	return products, nil
}

// Missing returns the ids that have no product in products.
func Missing(ids []int64, products []entities.Product) []int64 {
	found := lo.SliceToMap(products, func(p entities.Product) (int64, struct{}) {
		return p.ID, struct{}{}
	})
	return lo.Uniq(lo.Filter(ids, func(id int64, _ int) bool {
		_, ok := found[id]
		return !ok
	}))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entities.ErrProductNotFound):
		return "not_found"
	default:
		return "unavailable"
	}
}
