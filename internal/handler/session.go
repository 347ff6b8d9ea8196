package handler

import (
	"net/http"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/service"
)

// SessionHandler handles HTTP requests for the session lifecycle:
// trade dates, rebalancing, construction methods and the portfolio.
type SessionHandler struct {
	session *service.Session
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(session *service.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

type newDayRequest struct {
	TradeDate int `json:"trade_date"`
}

type goalResponse struct {
	Security   string `json:"security"`
	TargetSize int64  `json:"target_size"`
}

type rebalanceResponse struct {
	TradeDate     int                `json:"trade_date"`
	Method        string             `json:"method"`
	TaskID        string             `json:"task_id"`
	Weights       map[string]float64 `json:"weights"`
	Suspended     []string           `json:"suspended"`
	CashAvailable float64            `json:"cash_available"`
	Allocatable   float64            `json:"allocatable"`
	CashLeft      float64            `json:"cash_left"`
	Orders        []orderResponse    `json:"orders"`
	Errors        []string           `json:"errors"`
}

type weightsResponse struct {
	TradeDate int                `json:"trade_date"`
	Method    string             `json:"method"`
	Weights   map[string]float64 `json:"weights"`
	Goals     []goalResponse     `json:"goals"`
	Cash      float64            `json:"cash"`
}

type positionResponse struct {
	Security     string  `json:"security"`
	CurrentSize  int64   `json:"current_size"`
	PreviousSize int64   `json:"previous_size"`
	LastPrice    float64 `json:"last_price"`
	CostBasis    string  `json:"cost_basis"`
	Realized     string  `json:"realized"`
}

type portfolioResponse struct {
	TradeDate int                `json:"trade_date"`
	Cash      float64            `json:"cash"`
	Positions []positionResponse `json:"positions"`
}

type methodsResponse struct {
	Methods []string `json:"methods"`
	Active  string   `json:"active"`
}

type activateMethodRequest struct {
	Name string `json:"name"`
}

// NewDay handles POST /days.
func (h *SessionHandler) NewDay(w http.ResponseWriter, r *http.Request) {
	var req newDayRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.session.OnNewDay(req.TradeDate); err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newDayRequest{TradeDate: req.TradeDate})
}

// Rebalance handles POST /rebalance.
func (h *SessionHandler) Rebalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.session.Rebalance(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	orders := make([]orderResponse, 0, len(report.Orders))
	for _, o := range report.Orders {
		orders = append(orders, buildOrderResponse(*o, domain.OrderStatusNew, 0))
	}
	suspended := report.Suspended
	if suspended == nil {
		suspended = []string{}
	}

	WriteJSON(w, http.StatusOK, rebalanceResponse{
		TradeDate:     report.TradeDate,
		Method:        report.Method,
		TaskID:        report.TaskID,
		Weights:       report.Weights,
		Suspended:     suspended,
		CashAvailable: report.CashAvailable,
		Allocatable:   report.Allocatable,
		CashLeft:      report.CashLeft,
		Orders:        orders,
		Errors:        errorList(report.OrderErr),
	})
}

// ListMethods handles GET /methods.
func (h *SessionHandler) ListMethods(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, methodsResponse{
		Methods: h.session.Methods(),
		Active:  h.session.ActiveMethod(),
	})
}

// ActivateMethod handles PUT /methods/active.
func (h *SessionHandler) ActivateMethod(w http.ResponseWriter, r *http.Request) {
	var req activateMethodRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.session.ActivateMethod(req.Name); err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, methodsResponse{
		Methods: h.session.Methods(),
		Active:  h.session.ActiveMethod(),
	})
}

// GetWeights handles GET /weights.
func (h *SessionHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	weights := h.session.Weights()
	if weights == nil {
		weights = domain.Weights{}
	}
	goals := h.session.Goals()
	resp := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		resp = append(resp, goalResponse{Security: g.Security, TargetSize: g.TargetSize})
	}

	WriteJSON(w, http.StatusOK, weightsResponse{
		TradeDate: h.session.TradeDate(),
		Method:    h.session.ActiveMethod(),
		Weights:   weights,
		Goals:     resp,
		Cash:      h.session.Cash(),
	})
}

// GetPortfolio handles GET /portfolio.
func (h *SessionHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	positions := h.session.QueryPortfolio()
	resp := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, positionResponse{
			Security:     p.Security,
			CurrentSize:  p.CurrentSize,
			PreviousSize: p.PreviousSize,
			LastPrice:    p.LastPrice,
			CostBasis:    p.CostBasis.String(),
			Realized:     p.Realized.String(),
		})
	}

	WriteJSON(w, http.StatusOK, portfolioResponse{
		TradeDate: h.session.TradeDate(),
		Cash:      h.session.Cash(),
		Positions: resp,
	})
}

// Liquidate handles POST /portfolio/liquidate.
func (h *SessionHandler) Liquidate(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.session.Liquidate(r.Context())
	writeSubmission(w, taskID, err)
}
