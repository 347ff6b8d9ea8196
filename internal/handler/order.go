package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderHandler handles HTTP requests for order and task endpoints.
type OrderHandler struct {
	session *service.Session
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(session *service.Session) *OrderHandler {
	return &OrderHandler{session: session}
}

// placeOrderRequest is the JSON request body for POST /orders and each
// element of POST /orders/batch.
type placeOrderRequest struct {
	TaskID      string  `json:"task_id,omitempty"`
	Security    string  `json:"security"`
	Action      string  `json:"action"`
	Price       float64 `json:"price"`
	Size        int64   `json:"size"`
	PriceTarget string  `json:"price_target,omitempty"`
	Algo        string  `json:"algo,omitempty"`
}

// placeBatchRequest is the JSON request body for POST /orders/batch.
type placeBatchRequest struct {
	Orders []placeOrderRequest `json:"orders"`
	Algo   string              `json:"algo,omitempty"`
}

// submissionResponse reports the task an order or batch was recorded
// under and any gateway rejections.
type submissionResponse struct {
	TaskID string   `json:"task_id"`
	Errors []string `json:"errors"`
}

// orderResponse is a single order with its last known status.
type orderResponse struct {
	TaskID      string  `json:"task_id"`
	EntrustID   string  `json:"entrust_id"`
	Security    string  `json:"security"`
	Action      string  `json:"action"`
	Price       float64 `json:"price"`
	Size        int64   `json:"size"`
	OrderDate   int     `json:"order_date"`
	PriceTarget string  `json:"price_target"`
	Status      string  `json:"status"`
	FilledSize  int64   `json:"filled_size"`
}

type taskResponse struct {
	TaskID     string          `json:"task_id"`
	EntrustIDs []string        `json:"entrust_ids"`
	Orders     []orderResponse `json:"orders,omitempty"`
}

type tasksResponse struct {
	Tasks []taskResponse `json:"tasks"`
}

type cancelResponse struct {
	TaskID    string   `json:"task_id"`
	Cancelled bool     `json:"cancelled"`
	Errors    []string `json:"errors"`
}

// Place handles POST /orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	taskID, err := h.session.Place(r.Context(), service.PlaceRequest{
		TaskID:      req.TaskID,
		Security:    req.Security,
		Action:      domain.Action(req.Action),
		Price:       req.Price,
		Size:        req.Size,
		PriceTarget: domain.PriceTarget(req.PriceTarget),
		Algo:        req.Algo,
	})
	writeSubmission(w, taskID, err)
}

// PlaceBatch handles POST /orders/batch.
func (h *OrderHandler) PlaceBatch(w http.ResponseWriter, r *http.Request) {
	var req placeBatchRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	orders := make([]*domain.Order, 0, len(req.Orders))
	for _, o := range req.Orders {
		orders = append(orders, &domain.Order{
			Security:    o.Security,
			Action:      domain.Action(o.Action),
			Price:       o.Price,
			Size:        o.Size,
			PriceTarget: domain.PriceTarget(o.PriceTarget),
			Algo:        o.Algo,
		})
	}

	taskID, err := h.session.PlaceBatch(r.Context(), orders, req.Algo)
	writeSubmission(w, taskID, err)
}

// writeSubmission answers an order submission. Once a task id exists the
// orders are recorded, so gateway rejections are reported in the body of
// a 201 rather than as a failed request.
func writeSubmission(w http.ResponseWriter, taskID string, err error) {
	if err != nil && taskID == "" {
		mapError(w, err)
		return
	}
	status := http.StatusCreated
	if taskID == "" {
		status = http.StatusOK
	}
	WriteJSON(w, status, submissionResponse{TaskID: taskID, Errors: errorList(err)})
}

// ListTasks handles GET /tasks.
func (h *OrderHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.session.Tasks()
	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskResponse{TaskID: t.TaskID, EntrustIDs: t.EntrustIDs})
	}
	WriteJSON(w, http.StatusOK, tasksResponse{Tasks: resp})
}

// GetTask handles GET /tasks/{task_id}.
func (h *OrderHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	orders, err := h.session.TaskOrders(taskID)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := taskResponse{
		TaskID:     taskID,
		EntrustIDs: make([]string, 0, len(orders)),
		Orders:     make([]orderResponse, 0, len(orders)),
	}
	for _, o := range orders {
		resp.EntrustIDs = append(resp.EntrustIDs, o.Order.EntrustID)
		resp.Orders = append(resp.Orders, buildOrderResponse(o.Order, o.Status, o.FilledSize))
	}
	WriteJSON(w, http.StatusOK, resp)
}

// CancelTask handles POST /tasks/{task_id}/cancel.
func (h *OrderHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	ok, err := h.session.Cancel(r.Context(), taskID)
	if errors.Is(err, domain.ErrUnknownTask) {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cancelResponse{
		TaskID:    taskID,
		Cancelled: ok,
		Errors:    errorList(err),
	})
}

func buildOrderResponse(o domain.Order, status domain.OrderStatus, filled int64) orderResponse {
	return orderResponse{
		TaskID:      o.TaskID,
		EntrustID:   o.EntrustID,
		Security:    o.Security,
		Action:      string(o.Action),
		Price:       o.Price,
		Size:        o.Size,
		OrderDate:   o.OrderDate,
		PriceTarget: string(o.PriceTarget),
		Status:      string(status),
		FilledSize:  filled,
	}
}
