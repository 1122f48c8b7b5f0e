package emulator

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/waterfall"
)

// DefaultPageSize applies when a listing request has no usable limit.
const DefaultPageSize = 15

// Options controls emulator behavior.
type Options struct {
	// ReportTotal makes /rubros/listar answer {data, totalGlobal} instead of a bare array.
	ReportTotal bool
	Logger      *slog.Logger
}

// Handler serves the backend endpoints.
type Handler struct {
	store       *Store
	engine      *waterfall.Engine
	reportTotal bool
	logger      *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(s *Store, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:       s,
		engine:      waterfall.New(waterfall.DefaultConfig()),
		reportTotal: opts.ReportTotal,
		logger:      logger,
	}
}

// NewRouter returns the emulator's routes with middleware.
func NewRouter(s *Store, opts Options) http.Handler {
	h := NewHandler(s, opts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(h.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/rubros", func(r chi.Router) {
		r.Get("/listar", h.List)
		r.Get("/listar-global", h.ListGlobal)
		r.Get("/ofertas-detalle/{cliente}", h.Detail)
		r.Get("/calculos", h.Summaries)

		r.Post("/", h.CreateLineItem)
		r.Put("/{cliente}/{rubro}", h.UpdateLineItem)
		r.Delete("/{cliente}/{rubro}", h.DeleteLineItem)

		r.Post("/ofertas", h.CreateItem)
		r.Put("/ofertas/{cliente}/{codigo}", h.UpdateItem)
		r.Delete("/ofertas/{cliente}/{codigo}", h.DeleteItem)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// Ack is the acknowledgment body of mutating endpoints and errors.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type listResponse struct {
	Data          []Account `json:"data"`
	TotalGlobal   *int      `json:"totalGlobal,omitempty"`
	TotalClientes *int      `json:"totalClientes,omitempty"`
}

// List handles GET /rubros/listar.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, total, ok := h.page(w, r)
	if !ok {
		return
	}
	if !h.reportTotal {
		writeJSON(w, http.StatusOK, accounts)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: accounts, TotalGlobal: &total})
}

// ListGlobal handles GET /rubros/listar-global.
func (h *Handler) ListGlobal(w http.ResponseWriter, r *http.Request) {
	accounts, total, ok := h.page(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: accounts, TotalClientes: &total})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) ([]Account, int, bool) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", DefaultPageSize)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	accounts, total, err := h.store.ListAccounts((page-1)*limit, limit)
	if err != nil {
		h.logger.Error("listing accounts", "error", err)
		writeAck(w, http.StatusInternalServerError, "Failed to list accounts")
		return nil, 0, false
	}
	if accounts == nil {
		accounts = []Account{}
	}
	return accounts, total, true
}

// Detail handles GET /rubros/ofertas-detalle/{cliente}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAccount(chi.URLParam(r, "cliente"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type createLineItemRequest struct {
	ClientID   string      `json:"ClienteId"`
	ClientName string      `json:"ClienteNombre"`
	ID         string      `json:"RubroId"`
	Name       string      `json:"RubroNombre"`
	Percentage json.Number `json:"Porcentaje"`
}

// CreateLineItem handles POST /rubros.
func (h *Handler) CreateLineItem(w http.ResponseWriter, r *http.Request) {
	var req createLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAck(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ID = strings.TrimSpace(req.ID)
	if req.ClientID == "" || req.ID == "" || strings.TrimSpace(req.Name) == "" {
		writeAck(w, http.StatusBadRequest, "ClienteId, RubroId and RubroNombre are required")
		return
	}
	pct, ok := validNumber(req.Percentage)
	if !ok {
		writeAck(w, http.StatusBadRequest, "Invalid Porcentaje")
		return
	}

	err := h.store.AddLineItem(req.ClientID, nameOr(req.ClientName, req.ClientID), LineItem{ID: req.ID, Name: strings.TrimSpace(req.Name), Percentage: pct})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeAck(w, http.StatusCreated, "Rubro creado")
}

// UpdateLineItem handles PUT /rubros/{cliente}/{rubro}. The body is the bare percentage.
func (h *Handler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	var raw json.Number
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeAck(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	pct, ok := validNumber(raw)
	if !ok {
		writeAck(w, http.StatusBadRequest, "Invalid percentage")
		return
	}
	if err := h.store.SetLineItemPercentage(chi.URLParam(r, "cliente"), chi.URLParam(r, "rubro"), pct); err != nil {
		h.fail(w, err)
		return
	}
	writeAck(w, http.StatusOK, "Rubro actualizado")
}

// DeleteLineItem handles DELETE /rubros/{cliente}/{rubro}.
func (h *Handler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteLineItem(chi.URLParam(r, "cliente"), chi.URLParam(r, "rubro")); err != nil {
		h.fail(w, err)
		return
	}
	writeAck(w, http.StatusOK, "Rubro eliminado")
}

type createItemRequest struct {
	ClientID   string      `json:"ClienteId"`
	ClientName string      `json:"ClienteNombre"`
	Code       string      `json:"CodigoProducto"`
	Name       string      `json:"ProductoNombre"`
	TotalCost  json.Number `json:"TotalCosto"`
	TotalBase  json.Number `json:"TotalPrecio"`
}

// CreateItem handles POST /rubros/ofertas.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAck(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.Code = strings.TrimSpace(req.Code)
	if req.ClientID == "" || req.Code == "" {
		writeAck(w, http.StatusBadRequest, "ClienteId and CodigoProducto are required")
		return
	}
	cost, okCost := validNumber(req.TotalCost)
	base, okBase := validNumber(req.TotalBase)
	if !okCost || !okBase {
		writeAck(w, http.StatusBadRequest, "Invalid TotalCosto or TotalPrecio")
		return
	}

	err := h.store.AddItem(req.ClientID, nameOr(req.ClientName, req.ClientID), Item{Code: req.Code, Name: strings.TrimSpace(req.Name), TotalCost: cost, TotalBase: base})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeAck(w, http.StatusCreated, "Producto creado")
}

// UpdateItem handles PUT /rubros/ofertas/{cliente}/{codigo}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var p ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeAck(w, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	for _, n := range []*json.Number{p.TotalCost, p.TotalBase} {
		if n == nil {
			continue
		}
		v, ok := validNumber(*n)
		if !ok {
			writeAck(w, http.StatusBadRequest, "Invalid TotalCosto or TotalPrecio")
			return
		}
		*n = v
	}
	if err := h.store.UpdateItem(chi.URLParam(r, "cliente"), chi.URLParam(r, "codigo"), p); err != nil {
		h.fail(w, err)
		return
	}
	writeAck(w, http.StatusOK, "Producto actualizado")
}

// DeleteItem handles DELETE /rubros/ofertas/{cliente}/{codigo}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteItem(chi.URLParam(r, "cliente"), chi.URLParam(r, "codigo")); err != nil {
		h.fail(w, err)
		return
	}
	writeAck(w, http.StatusOK, "Producto eliminado")
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeAck(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		writeAck(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("emulator store failure", "error", err)
		writeAck(w, http.StatusInternalServerError, "Internal error")
	}
}

func validNumber(n json.Number) (json.Number, bool) {
	if n == "" {
		return "0", true
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return "", false
	}
	return json.Number(d.String()), true
}

func nameOr(name, fallback string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return fallback
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAck(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Ack{Success: status < 300, Message: message})
}
