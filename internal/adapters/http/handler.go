package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
	"judokit/internal/observability"
)

// maxBodyBytes bounds a checkout request body.
const maxBodyBytes = 1 << 20

// CheckoutHandler exposes the checkout service over JSON.
type CheckoutHandler struct {
	service ports.CheckoutService
	logger  *slog.Logger
}

func NewCheckoutHandler(service ports.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the checkout endpoints on r.
func (h *CheckoutHandler) Routes(r chi.Router) {
	for _, typ := range []domain.TransactionType{
		domain.TypePayment, domain.TypePreAuth, domain.TypeRegisterCard,
		domain.TypeCollection, domain.TypeRefund, domain.TypeVoid,
	} {
		r.Post("/"+routeName(typ), h.handleCreate(typ))
	}
	for _, typ := range []domain.TransactionType{domain.TypePayment, domain.TypePreAuth, domain.TypeRegisterCard} {
		r.Get("/"+routeName(typ), h.handleList(typ))
	}
	r.Get("/transactions", h.HandleListReceipts)
	r.Get("/transactions/{receiptId}", h.HandleReceipt)
	r.Put("/transactions/{receiptId}", h.HandleThreeDSecure)
}

// routeName is the last segment of the gateway path, e.g. "payments".
func routeName(t domain.TransactionType) string {
	p := t.Path()
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func (h *CheckoutHandler) handleCreate(typ domain.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CheckoutRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest, h.logger)
			return
		}
		req.Type = typ.String()
		observability.LoggerFromContext(r.Context(), h.logger).Debug("checkout request", "type", req.Type, "subject", subjectFromContext(r.Context()))

		outcome, err := h.service.Process(r.Context(), req)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeOutcome(w, outcome)
	}
}

type threeDSecureRequest struct {
	PaRes string `json:"paRes"`
	MD    string `json:"md"`
}

// HandleThreeDSecure fulfils a challenged transaction.
func (h *CheckoutHandler) HandleThreeDSecure(w http.ResponseWriter, r *http.Request) {
	var req threeDSecureRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest, h.logger)
		return
	}

	outcome, err := h.service.CompleteThreeDSecure(r.Context(), chi.URLParam(r, "receiptId"), req.PaRes, req.MD)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOutcome(w, outcome)
}

func (h *CheckoutHandler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.service.Receipt(r.Context(), chi.URLParam(r, "receiptId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOutcome(w, outcome)
}

func (h *CheckoutHandler) HandleListReceipts(w http.ResponseWriter, r *http.Request) {
	page, err := paginationFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	outcome, err := h.service.ListReceipts(r.Context(), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeOutcome(w, outcome)
}

func (h *CheckoutHandler) handleList(typ domain.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := paginationFromQuery(r)
		if err != nil {
			h.writeError(w, err)
			return
		}

		outcome, err := h.service.ListTransactions(r.Context(), typ, page)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeOutcome(w, outcome)
	}
}

func paginationFromQuery(r *http.Request) (domain.Pagination, error) {
	page := domain.DefaultPagination()
	q := r.URL.Query()
	ve := &domain.ValidationError{}

	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("pageSize", "must be a number")
		}
		page.PageSize = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			ve.Add("offset", "must be a number")
		}
		page.Offset = n
	}
	if v := q.Get("sort"); v != "" {
		page.Sort = domain.Sort(v)
	}
	return page, ve.OrNil()
}

func (h *CheckoutHandler) writeOutcome(w http.ResponseWriter, outcome domain.Outcome) {
	status := http.StatusOK
	if outcome.ChallengeRequired() {
		status = http.StatusAccepted
	}
	writeJSON(w, status, newOutcomeResponse(outcome), h.logger)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *CheckoutHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		configErr     *domain.ConfigurationError
		networkErr    *domain.NetworkError
		apiErr        *domain.APIError
		parseErr      *domain.ResponseParseError
		serialErr     *domain.SerializationError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, newValidationResponse(validationErr), h.logger)

	case errors.Is(err, domain.ErrDuplicateReference):
		writeJSONError(w, "payment reference already used", http.StatusConflict, h.logger)

	case errors.Is(err, domain.ErrNoChallenge):
		writeJSONError(w, err.Error(), http.StatusConflict, h.logger)

	case errors.Is(err, domain.ErrCancelled):
		writeJSONError(w, "transaction cancelled", http.StatusRequestTimeout, h.logger)

	case errors.As(err, &apiErr):
		writeJSON(w, apiErrorStatus(apiErr), newAPIErrorResponse(apiErr), h.logger)

	case errors.As(err, &configErr):
		h.logger.Error("gateway is not configured", "error", err)
		writeJSONError(w, "service temporarily unavailable", http.StatusServiceUnavailable, h.logger)

	case errors.As(err, &networkErr):
		h.logger.Warn("gateway unreachable", "error", err, "timeout", networkErr.Timeout)
		if networkErr.Timeout {
			writeJSONError(w, "gateway timeout", http.StatusGatewayTimeout, h.logger)
			return
		}
		writeJSONError(w, "gateway unavailable", http.StatusBadGateway, h.logger)

	case errors.As(err, &parseErr), errors.As(err, &serialErr):
		h.logger.Error("unreadable gateway response", "error", err)
		writeJSONError(w, "unreadable gateway response", http.StatusBadGateway, h.logger)

	default:
		h.logger.Error("unexpected checkout error", "error", err)
		writeJSONError(w, "internal server error", http.StatusInternalServerError, h.logger)
	}
}

func apiErrorStatus(e *domain.APIError) int {
	switch e.Category {
	case domain.CategoryValidation:
		return http.StatusBadRequest
	case domain.CategoryAuthentication:
		return http.StatusBadGateway
	case domain.CategoryDeclined, domain.CategoryThreeDSecure:
		return http.StatusPaymentRequired
	case domain.CategoryDuplicate:
		return http.StatusConflict
	case domain.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int, logger *slog.Logger) {
	writeJSON(w, status, map[string]string{"error": message}, logger)
}
