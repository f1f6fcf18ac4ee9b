package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Dan9191/finhealth-service/internal/integrations/statement"
	"github.com/Dan9191/finhealth-service/internal/models"
	"github.com/Dan9191/finhealth-service/internal/repository"
	"github.com/Dan9191/finhealth-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	maxJSONBody      = 1 << 20
	maxStatementBody = 10 << 20
)

// HealthService is the business layer used by the handlers
type HealthService interface {
	SaveProfile(ctx context.Context, p models.FinancialProfile) (*models.FinancialProfile, error)
	GetProfile(ctx context.Context) (*models.FinancialProfile, error)
	AddTransaction(ctx context.Context, tx models.Transaction) (*models.Transaction, error)
	ImportStatement(ctx context.Context, filename string, r io.Reader) (int, error)
	HealthScore(ctx context.Context) (models.ScoreResult, error)
}

type Handler struct {
	svc HealthService
	log *logrus.Logger
}

func NewHandler(svc HealthService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the public and authenticated endpoints on r
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	// Public routes
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(auth)
	authRouter.HandleFunc("/profile", h.GetProfile).Methods("GET")
	authRouter.HandleFunc("/profile", h.SaveProfile).Methods("PUT")
	authRouter.HandleFunc("/transactions", h.AddTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/import", h.ImportStatement).Methods("POST")
	authRouter.HandleFunc("/health-score", h.HealthScore).Methods("GET")
}

// Healthz reports that the process is serving
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetProfile returns the caller's financial profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile replaces the caller's financial profile
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object"})
		return
	}

	p, err := h.svc.SaveProfile(r.Context(), decodeProfile(fields))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type transactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// AddTransaction records one income or expense
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid transaction body"})
		return
	}

	tx := models.Transaction{
		Amount:      req.Amount,
		Type:        models.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Description: req.Description,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD or RFC 3339"})
			return
		}
		tx.Date = date
	}

	created, err := h.svc.AddTransaction(r.Context(), tx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ImportStatement stores the transactions of an uploaded XML or OFX statement
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "filename query parameter is required"})
		return
	}

	n, err := h.svc.ImportStatement(r.Context(), filename, http.MaxBytesReader(w, r.Body, maxStatementBody))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": n})
}

// HealthScore returns the caller's current financial health score
func (h *Handler) HealthScore(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.HealthScore(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(statement.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, statement.ErrUnsupportedFormat):
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidStatement), errors.Is(err, service.ErrInvalidTransaction):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		h.log.Errorf("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
