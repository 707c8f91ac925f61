package handler

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/SergeyBogomolovv/orders-service/internal/entities"
	"github.com/SergeyBogomolovv/orders-service/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type OrderService interface {
	CreateOrder(ctx context.Context, items []entities.NewOrderItem) (entities.Order, error)
	ListOrders(ctx context.Context, filter entities.OrderFilter) (entities.OrderPage, error)
	GetOrder(ctx context.Context, id uuid.UUID) (entities.Order, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status entities.Status) (entities.Order, error)
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: newValidator(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.ChangeStatus)
	})
}

// CreateOrder creates an order priced by the product service.
// @Summary      Create order
// @Description  Validates products, prices items and stores the order with status PENDING
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body      CreateOrderRequest  true  "Order items"
// @Success      201    {object}  Order
// @Failure      400    {object}  utils.ValidationErrorResponse "Invalid request or unknown product"
// @Failure      503    {object}  utils.ErrorResponse "Product service unavailable"
// @Failure      500    {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [post]
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.CreateOrder(ctx, req.ToEntity())
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusCreated)
}

// ListOrders returns one page of orders, oldest first.
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status  query     string  false  "Status filter"  Enums(PENDING, DELIVERED, CANCELLED)
// @Param        page    query     int     false  "Page, starting at 1"  default(1)
// @Param        limit   query     int     false  "Page size"  default(10)
// @Success      200     {object}  OrderPage
// @Failure      400     {object}  utils.ErrorResponse "Invalid pagination or status"
// @Failure      500     {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders [get]
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var filter entities.OrderFilter

	if s := query.Get("status"); s != "" {
		status, err := entities.ParseStatus(s)
		if err != nil {
			utils.WriteError(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.Page, err = intParam(query.Get("page"), defaultPage); err != nil {
		utils.WriteError(w, "page must be an integer", http.StatusBadRequest)
		return
	}
	if filter.Limit, err = intParam(query.Get("limit"), defaultLimit); err != nil {
		utils.WriteError(w, "limit must be an integer", http.StatusBadRequest)
		return
	}

	page, err := h.svc.ListOrders(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, PageEntityToJSON(page), http.StatusOK)
}

// GetOrder returns an order with its items.
// @Summary      Get order by id
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order id"  Format(uuid)
// @Success      200  {object}  Order
// @Failure      400  {object}  utils.ErrorResponse "Invalid id"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{id} [get]
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// ChangeStatus sets the order status.
// @Summary      Change order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path      string               true  "Order id"  Format(uuid)
// @Param        status  body      ChangeStatusRequest  true  "New status"
// @Success      200     {object}  Order
// @Failure      400     {object}  utils.ValidationErrorResponse "Invalid request"
// @Failure      404     {object}  utils.ErrorResponse "Order not found"
// @Failure      500     {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{id}/status [patch]
func (h *HTTPHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req ChangeStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.svc.ChangeStatus(ctx, id, entities.Status(req.Status))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

func (h *HTTPHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := entities.StatusCode(err)
	if code >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", slog.Any("error", err))
	}
	utils.WriteError(w, entities.Message(err), code)
}

func intParam(value string, fallback int) (int, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
