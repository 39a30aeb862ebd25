package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matchacafe/api/internal/catalog"
	"github.com/matchacafe/api/internal/ledger"
	"github.com/matchacafe/api/internal/wizard"
)

const sessionCookie = "matcha_session"

// maxSlipSize caps the multipart upload; payment slips are phone
// screenshots, well under this.
const maxSlipSize = 10 << 20

// qrCandidates are tried in order when no QR image path is
// configured, matching the files a stand drops next to the binary.
var qrCandidates = []string{"qr_matcha.jpeg", "qr_matcha.jpg", "qr_matcha.png"}

// WizardHandler exposes the customer order flow over HTTP. Each
// browser gets a session cookie; the working order lives server-side.
type WizardHandler struct {
	wiz      *wizard.Wizard
	sessions *wizard.Sessions
	qrImage  string // configured payment QR path; empty falls back to qrCandidates
}

func NewWizardHandler(wiz *wizard.Wizard, sessions *wizard.Sessions, qrImage string) *WizardHandler {
	return &WizardHandler{wiz: wiz, sessions: sessions, qrImage: qrImage}
}

// RegisterRoutes registers wizard endpoints on the given Chi router.
func (h *WizardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/wizard", h.State)
	r.Get("/wizard/qr", h.QR)
	r.Post("/wizard/register", h.Register)
	r.Post("/wizard/select", h.Select)
	r.Post("/wizard/back", h.Back)
	r.Post("/wizard/confirm", h.Confirm)
	r.Post("/wizard/reset", h.Reset)
}

// --- Request / Response types ---

type registerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type selectRequest struct {
	Menu        string `json:"menu"`
	Sweetness   string `json:"sweetness"`
	Temperature string `json:"temperature"`
	Note        string `json:"note"`
}

type menuItemResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type formOptionsResponse struct {
	Menu               []menuItemResponse `json:"menu"`
	Sweetness          []string           `json:"sweetness"`
	Temperature        []string           `json:"temperature"`
	DefaultMenu        string             `json:"default_menu"`
	DefaultSweetness   string             `json:"default_sweetness"`
	DefaultTemperature string             `json:"default_temperature"`
}

type customerResponse struct {
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

type selectionResponse struct {
	Menu        string `json:"menu"`
	Sweetness   string `json:"sweetness"`
	Temperature string `json:"temperature"`
	Note        string `json:"note,omitempty"`
	Price       string `json:"price"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
}

type stateResponse struct {
	Step        wizard.Step         `json:"step"`
	Customer    *customerResponse   `json:"customer,omitempty"`
	Selection   *selectionResponse  `json:"selection,omitempty"`
	Confirmed   bool                `json:"confirmed"`
	LastOrderID string              `json:"last_order_id,omitempty"`
	Options     formOptionsResponse `json:"options"`
}

type confirmResponse struct {
	OrderID    string `json:"order_id"`
	CreatedAt  string `json:"created_at"`
	TotalPrice string `json:"total_price"`
	SlipFile   string `json:"slip_file"`
}

// --- Handlers ---

// State handles GET /wizard.
func (h *WizardHandler) State(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	writeJSON(w, http.StatusOK, h.toStateResponse(s.State()))
}

// Register handles POST /wizard/register.
func (h *WizardHandler) Register(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.wiz.Register(s, req.Name, req.Phone); err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toStateResponse(s.State()))
}

// Select handles POST /wizard/select.
func (h *WizardHandler) Select(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.wiz.Select(s, req.Menu, req.Sweetness, req.Temperature, req.Note); err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toStateResponse(s.State()))
}

// Back handles POST /wizard/back.
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	if err := h.wiz.Back(s); err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toStateResponse(s.State()))
}

// Confirm handles POST /wizard/confirm (multipart, field "slip").
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	slipName, slipData, err := readSlip(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": wizard.ErrSlipRequired.Error()})
		return
	}

	order, err := h.wiz.Confirm(r.Context(), s, slipName, slipData)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, confirmResponse{
		OrderID:    order.OrderID,
		CreatedAt:  order.CreatedAt,
		TotalPrice: order.TotalPrice.StringFixed(2),
		SlipFile:   order.SlipFile,
	})
}

// Reset handles POST /wizard/reset ("start new order").
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.wiz.Reset(s)
	writeJSON(w, http.StatusOK, h.toStateResponse(s.State()))
}

// QR handles GET /wizard/qr: the stand's payment QR image, shown to
// the customer at the payment step. A missing image is a warning for
// the operator; the flow itself keeps working.
func (h *WizardHandler) QR(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readQR()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment QR image not found"})
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// readQR loads the configured QR image, or the first of the well-known
// filenames when none is configured.
func (h *WizardHandler) readQR() ([]byte, bool) {
	candidates := qrCandidates
	if h.qrImage != "" {
		candidates = []string{h.qrImage}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, true
		}
		if !os.IsNotExist(err) {
			log.Printf("WARN: read payment QR %s: %v", path, err)
		}
	}
	log.Printf("WARN: payment QR image not found (set QR_IMAGE or add qr_matcha.jpg)")
	return nil, false
}

// --- Helpers ---

// session finds the caller's session from the cookie, creating a new
// one (and setting the cookie) for first-time or expired callers.
func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) *wizard.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if s, ok := h.sessions.Get(c.Value); ok {
			return s
		}
	}

	id, s := h.sessions.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func readSlip(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(maxSlipSize); err != nil {
		return "", nil, err
	}
	file, header, err := r.FormFile("slip")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSlipSize))
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

func (h *WizardHandler) writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, wizard.ErrWrongStep), errors.Is(err, wizard.ErrAlreadyConfirmed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: wizard: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// isValidationError checks if the error is a known validation error
// that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, wizard.ErrNameRequired) ||
		errors.Is(err, wizard.ErrPhoneRequired) ||
		errors.Is(err, wizard.ErrUnknownMenu) ||
		errors.Is(err, wizard.ErrUnknownSweetness) ||
		errors.Is(err, wizard.ErrUnknownTemp) ||
		errors.Is(err, wizard.ErrSlipRequired)
}

func (h *WizardHandler) toStateResponse(st wizard.State) stateResponse {
	resp := stateResponse{
		Step:        st.Step,
		Confirmed:   st.Confirmed,
		LastOrderID: st.LastOrderID,
		Options:     formOptions(h.wiz.Catalog()),
	}
	if st.HasCustomer {
		resp.Customer = &customerResponse{
			Name:         st.Customer.Name,
			Phone:        st.Customer.Phone,
			RegisteredAt: st.Customer.RegisteredAt,
		}
	}
	if st.HasSelection {
		resp.Selection = &selectionResponse{
			Menu:        st.Selection.Menu,
			Sweetness:   st.Selection.Sweetness,
			Temperature: st.Selection.Temperature,
			Note:        st.Selection.Note,
			Price:       st.Selection.Price.StringFixed(2),
			DeliveryFee: st.Selection.DeliveryFee.StringFixed(2),
			Total:       st.Selection.Total.StringFixed(2),
		}
	}
	return resp
}

func formOptions(cat *catalog.Catalog) formOptionsResponse {
	items := cat.Items()
	menu := make([]menuItemResponse, len(items))
	for i, it := range items {
		menu[i] = menuItemResponse{Name: it.Name, Price: it.Price.StringFixed(2)}
	}
	return formOptionsResponse{
		Menu:               menu,
		Sweetness:          cat.SweetnessLevels(),
		Temperature:        cat.Temperatures(),
		DefaultMenu:        cat.DefaultMenu(),
		DefaultSweetness:   cat.DefaultSweetness(),
		DefaultTemperature: cat.DefaultTemperature(),
	}
}

// ledgerOrderResponse is shared with the admin handlers.
type ledgerOrderResponse struct {
	OrderID     string `json:"order_id"`
	CreatedAt   string `json:"created_at"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Menu        string `json:"menu"`
	Sweetness   string `json:"sweetness"`
	Temperature string `json:"temperature"`
	Note        string `json:"note,omitempty"`
	Price       string `json:"price"`
	DeliveryFee string `json:"delivery_fee"`
	TotalPrice  string `json:"total_price"`
	SlipFile    string `json:"slip_file"`
}

func toLedgerOrderResponse(o ledger.Order) ledgerOrderResponse {
	return ledgerOrderResponse{
		OrderID:     o.OrderID,
		CreatedAt:   o.CreatedAt,
		Name:        o.Name,
		Phone:       o.Phone,
		Menu:        o.Menu,
		Sweetness:   o.Sweetness,
		Temperature: o.Temperature,
		Note:        o.Note,
		Price:       o.Price.StringFixed(2),
		DeliveryFee: o.DeliveryFee.StringFixed(2),
		TotalPrice:  o.TotalPrice.StringFixed(2),
		SlipFile:    o.SlipFile,
	}
}
