package handler

import (
	"fmt"
	"net/http"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/go-chi/chi/v5"
)

// BarStore accepts market data pushed over HTTP.
type BarStore interface {
	PutBar(security string, bar domain.Bar)
	SetSuspensions(date int, securities []string)
}

// MarketDataHandler handles HTTP requests that load bars and suspension
// lists into the data provider.
type MarketDataHandler struct {
	bars BarStore
}

// NewMarketDataHandler creates a new MarketDataHandler.
func NewMarketDataHandler(bars BarStore) *MarketDataHandler {
	return &MarketDataHandler{bars: bars}
}

type barRequest struct {
	Date  int     `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	VWAP  float64 `json:"vwap"`
}

type barResponse struct {
	Security string `json:"security"`
	Date     int    `json:"date"`
}

type suspensionsRequest struct {
	Date       int      `json:"date"`
	Securities []string `json:"securities"`
}

// PutBar handles PUT /marketdata/{security}/bars.
func (h *MarketDataHandler) PutBar(w http.ResponseWriter, r *http.Request) {
	security := chi.URLParam(r, "security")

	var req barRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !domain.ValidTradeDate(req.Date) {
		WriteError(w, http.StatusBadRequest, "validation_error", fmt.Sprintf("invalid date %d", req.Date))
		return
	}
	if req.Close <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "close must be greater than 0")
		return
	}
	if req.VWAP < 0 || req.Open < 0 || req.High < 0 || req.Low < 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "prices must be non-negative")
		return
	}

	h.bars.PutBar(security, domain.Bar{
		Date:  req.Date,
		Open:  req.Open,
		High:  req.High,
		Low:   req.Low,
		Close: req.Close,
		VWAP:  req.VWAP,
	})
	WriteJSON(w, http.StatusOK, barResponse{Security: security, Date: req.Date})
}

// SetSuspensions handles PUT /marketdata/suspensions.
func (h *MarketDataHandler) SetSuspensions(w http.ResponseWriter, r *http.Request) {
	var req suspensionsRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !domain.ValidTradeDate(req.Date) {
		WriteError(w, http.StatusBadRequest, "validation_error", fmt.Sprintf("invalid date %d", req.Date))
		return
	}
	if req.Securities == nil {
		req.Securities = []string{}
	}

	h.bars.SetSuspensions(req.Date, req.Securities)
	WriteJSON(w, http.StatusOK, req)
}
