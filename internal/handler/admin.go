package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/receipt"
	"github.com/matchacafe/api/internal/slips"
)

// SlipOpener defines the slip-store methods needed by admin handlers.
// Satisfied by *slips.Store; narrow interface for testability.
type SlipOpener interface {
	Open(name string) ([]byte, error)
}

// AdminHandler serves the operator's read-only view over the ledger.
// Every route here sits behind the auth middleware.
type AdminHandler struct {
	store ledger.Store
	slips SlipOpener
}

func NewAdminHandler(store ledger.Store, slips SlipOpener) *AdminHandler {
	return &AdminHandler{store: store, slips: slips}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Get("/orders/{id}/slip", h.Slip)
	r.Get("/orders/{id}/receipt", h.Receipt)
}

type orderListResponse struct {
	Orders []ledgerOrderResponse `json:"orders"`
	Count  int                   `json:"count"`
}

// orderDetailResponse adds the slip-availability warning to one order.
type orderDetailResponse struct {
	ledgerOrderResponse
	SlipMissing bool `json:"slip_missing,omitempty"`
}

// List handles GET /admin/orders: the full ledger dump in append order.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.LoadAll(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ledgerOrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toLedgerOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Count: len(resp)})
}

// Get handles GET /admin/orders/{id}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.findOrder(w, r)
	if !ok {
		return
	}

	detail := orderDetailResponse{ledgerOrderResponse: toLedgerOrderResponse(order)}
	if _, err := h.slips.Open(order.SlipFile); err != nil {
		// Missing image is a warning on the response, never a failure.
		detail.SlipMissing = true
	}
	writeJSON(w, http.StatusOK, detail)
}

// Slip handles GET /admin/orders/{id}/slip: the raw receipt image.
func (h *AdminHandler) Slip(w http.ResponseWriter, r *http.Request) {
	order, ok := h.findOrder(w, r)
	if !ok {
		return
	}

	data, err := h.slips.Open(order.SlipFile)
	if err != nil {
		if errors.Is(err, slips.ErrSlipNotFound) || errors.Is(err, slips.ErrBadFilename) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "slip file missing"})
			return
		}
		log.Printf("ERROR: open slip %s: %v", order.SlipFile, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Receipt handles GET /admin/orders/{id}/receipt: the printable
// document, offered as a download named after the order.
func (h *AdminHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	order, ok := h.findOrder(w, r)
	if !ok {
		return
	}

	doc, err := receipt.Render(order)
	if err != nil {
		log.Printf("ERROR: render receipt for %s: %v", order.OrderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+receipt.Filename(order.OrderID)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// findOrder loads the ledger and scans for the URL's order ID, writing
// the error response itself when the lookup fails.
func (h *AdminHandler) findOrder(w http.ResponseWriter, r *http.Request) (ledger.Order, bool) {
	id := chi.URLParam(r, "id")

	orders, err := h.store.LoadAll(r.Context())
	if err != nil {
		log.Printf("ERROR: load ledger: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return ledger.Order{}, false
	}

	order, err := ledger.FindByID(orders, id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return ledger.Order{}, false
	}
	return order, true
}
