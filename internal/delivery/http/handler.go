package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tablestack/resto-pos/backend/internal/entity"
	"github.com/tablestack/resto-pos/backend/internal/pricing"
	"github.com/tablestack/resto-pos/backend/internal/process"
	"github.com/tablestack/resto-pos/backend/internal/repository"
	"github.com/tablestack/resto-pos/backend/internal/service"
)

// Handler exposes the take-order flow endpoints consumed by the POS
// frontend.
type Handler struct {
	orderSvc *service.OrderService
	manager  *process.TakeOrderManager
	pricer   *pricing.Calculator
}

func NewHandler(orderSvc *service.OrderService, manager *process.TakeOrderManager, pricer *pricing.Calculator) *Handler {
	return &Handler{
		orderSvc: orderSvc,
		manager:  manager,
		pricer:   pricer,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/flow/start", h.handleStart)
	mux.HandleFunc("POST /orders/flow/{orderUuid}/items", h.handleAddItems)
	mux.HandleFunc("POST /orders/flow/{orderUuid}/promotion", h.handlePromotion)
	mux.HandleFunc("POST /orders/flow/{orderUuid}/tip", h.handleTip)
	mux.HandleFunc("POST /orders/flow/{orderUuid}/confirm", h.handleConfirm)
	mux.HandleFunc("POST /orders/flow/{orderUuid}/cancel", h.handleCancel)
	mux.HandleFunc("GET /orders", h.handleGetOrders)
	mux.HandleFunc("GET /orders/{orderUuid}", h.handleGetOrder)
	mux.HandleFunc("GET /menu", h.handleGetMenu)
}

type startRequest struct {
	StaffID     string `json:"staffId"`
	LocationID  string `json:"locationId"`
	TableNumber int    `json:"tableNumber"`
	ProcessID   string `json:"process_id"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.orderSvc.StartOrder(r.Context(), req.StaffID, req.LocationID, req.TableNumber, req.ProcessID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type addItemsRequest struct {
	Items     []entity.OrderLine `json:"items"`
	ProcessID string             `json:"process_id"`
}

type addItemsResponse struct {
	Status     entity.Status               `json:"status"`
	Subtotal   int64                       `json:"subtotal"`
	Promotions availablePromotionsResponse `json:"promotions"`
}

type availablePromotionsResponse struct {
	Available []pricing.AvailablePromotion `json:"available"`
}

func (h *Handler) handleAddItems(w http.ResponseWriter, r *http.Request) {
	orderUUID := r.PathValue("orderUuid")

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.orderSvc.AddItems(r.Context(), orderUUID, req.Items); err != nil {
		h.writeError(w, err)
		return
	}

	// The process manager advances the workflow inline so the response can
	// carry the validated status, subtotal and available promotions.
	if err := h.manager.OnItemsAdded(r.Context(), orderUUID); err != nil {
		h.writeError(w, err)
		return
	}

	agg, err := h.orderSvc.GetAggregate(r.Context(), orderUUID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	available, err := h.pricer.Available(r.Context(), agg.Subtotal)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, addItemsResponse{
		Status:     agg.Status,
		Subtotal:   agg.Subtotal,
		Promotions: availablePromotionsResponse{Available: available},
	})
}

type promotionRequest struct {
	PromotionID string `json:"promotion_id"`
	Action      string `json:"action"`
	ProcessID   string `json:"process_id"`
}

func (h *Handler) handlePromotion(w http.ResponseWriter, r *http.Request) {
	orderUUID := r.PathValue("orderUuid")

	var req promotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Action != "" && req.Action != "apply" {
		http.Error(w, "unsupported promotion action", http.StatusBadRequest)
		return
	}

	discount, err := h.orderSvc.ApplyPromotion(r.Context(), orderUUID, req.PromotionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"discount": discount})
}

type tipRequest struct {
	TipAmount int64 `json:"tip_amount"`
}

func (h *Handler) handleTip(w http.ResponseWriter, r *http.Request) {
	orderUUID := r.PathValue("orderUuid")

	var req tipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tip, err := h.orderSvc.AddTip(r.Context(), orderUUID, req.TipAmount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"tip": tip})
}

type confirmRequest struct {
	PaymentMethod string `json:"payment_method"`
	ProcessID     string `json:"process_id"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	orderUUID := r.PathValue("orderUuid")

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.orderSvc.Confirm(r.Context(), orderUUID, req.PaymentMethod)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	orderUUID := r.PathValue("orderUuid")

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orderSvc.Cancel(r.Context(), orderUUID, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(r.Context(), r.PathValue("orderUuid"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.GetRecentOrders(r.Context(), 50)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.orderSvc.GetMenu(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verrs entity.ValidationErrors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
		return
	}

	var transition *entity.InvalidStateTransitionError
	if errors.As(err, &transition) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  transition.Error(),
			"action": transition.Action,
			"state":  transition.Status,
		})
		return
	}

	if errors.Is(err, repository.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	if repository.IsConcurrencyConflict(err) {
		// Retries are exhausted by the service; the caller may simply resubmit.
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order was modified concurrently, retry"})
		return
	}

	slog.Error("Request failed", "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// EnableCORS is a middleware to allow the POS frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
