package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"ecomdash/internal/analytics"
	"ecomdash/internal/dataset"
	apierrors "ecomdash/internal/errors"
	"ecomdash/internal/services"
)

// selectionQuery carries the filter selection through query parameters.
// Year and the date range are mutually exclusive; when year is set the
// range values are accepted but ignored, matching the disabled control in
// the dashboard UI.
type selectionQuery struct {
	Year     int    `validate:"omitempty,gte=1900,lte=2100"`
	Start    string `validate:"omitempty,datetime=2006-01-02"`
	End      string `validate:"omitempty,datetime=2006-01-02"`
	State    string `validate:"omitempty,max=64"`
	Category string `validate:"omitempty,max=128"`
	TopN     int    `validate:"omitempty,gte=5,lte=20"`
}

// DashboardHandler serves the dashboard data API.
type DashboardHandler struct {
	service  DashboardServiceInterface
	logger   *slog.Logger
	validate *validator.Validate
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "dashboard_handler")),
		validate: validator.New(),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/filters", h.GetFilters)
	r.Get("/summary", h.GetSummary)
	r.Post("/reload", h.Reload)

	r.Route("/charts", func(r chi.Router) {
		r.Get("/state-revenue", h.GetStateRevenue)
		r.Get("/monthly-revenue", h.GetMonthlyRevenue)
		r.Get("/sales-heatmap", h.GetSalesHeatmap)
		r.Get("/payment-types", h.GetPaymentTypes)
		r.Get("/delivery-status", h.GetDeliveryStatus)
		r.Get("/review-delivery", h.GetReviewDelivery)
		r.Get("/top-categories", h.GetTopCategories)
		r.Get("/top-seller-states", h.GetTopSellerStates)
	})

	r.Get("/export/orders", h.ExportOrders)

	return r
}

// parseSelection builds a Selection from the request query, validating the
// raw parameters first.
func (h *DashboardHandler) parseSelection(r *http.Request) (analytics.Selection, *apierrors.APIError) {
	q := r.URL.Query()

	query := selectionQuery{
		Start:    q.Get("start"),
		End:      q.Get("end"),
		State:    q.Get("state"),
		Category: q.Get("category"),
	}
	if raw := q.Get("year"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &query.Year); err != nil {
			return analytics.Selection{}, apierrors.ErrValidation("year", "must be a four-digit year")
		}
	}
	if raw := q.Get("top"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &query.TopN); err != nil {
			return analytics.Selection{}, apierrors.ErrValidation("top", "must be an integer")
		}
	}

	if err := h.validate.Struct(query); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			return analytics.Selection{}, apierrors.ErrValidation(field, fmt.Sprintf("failed %q constraint", verrs[0].Tag()))
		}
		return analytics.Selection{}, apierrors.ErrValidationFailed
	}

	sel := analytics.Selection{
		Year:     query.Year,
		State:    query.State,
		Category: query.Category,
		TopN:     query.TopN,
	}
	if query.Start != "" {
		t, _ := time.Parse("2006-01-02", query.Start)
		sel.StartDate = t
	}
	if query.End != "" {
		t, _ := time.Parse("2006-01-02", query.End)
		sel.EndDate = t
	}
	if !sel.StartDate.IsZero() && !sel.EndDate.IsZero() && sel.EndDate.Before(sel.StartDate) {
		return analytics.Selection{}, apierrors.ErrValidation("end", "must not be before start")
	}
	return sel, nil
}

// handleServiceError maps service errors onto the API error taxonomy.
// DataUnavailable blocks the whole dashboard (503); NoRowsForFilter is the
// recoverable empty-view condition (404).
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dataset.ErrDataUnavailable):
		h.logger.ErrorContext(r.Context(), "dataset unavailable", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.DataUnavailableError(err)))
	case errors.Is(err, services.ErrNoRowsForFilter):
		h.logger.InfoContext(r.Context(), "no rows for filter selection")
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.NoRowsForFilterError()))
	default:
		h.logger.ErrorContext(r.Context(), "dashboard request failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInternalServer))
	}
}

// respond writes the success envelope.
func respond(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// GetFilters handles GET /filters: control values plus the default
// (reset-state) selection.
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	options, defaults, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, map[string]interface{}{
		"options":  options,
		"defaults": defaults,
	})
}

// GetSummary handles GET /summary.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sel, aerr := h.parseSelection(r)
	if aerr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(aerr))
		return
	}
	summary, err := h.service.Summary(r.Context(), sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, summary)
}

// Reload handles POST /reload: explicit cache invalidation.
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	fingerprint, rows, err := h.service.Reload(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, map[string]interface{}{
		"fingerprint": fingerprint,
		"rows":        rows,
	})
}

// GetStateRevenue handles GET /charts/state-revenue.
func (h *DashboardHandler) GetStateRevenue(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.StateRevenue(r.Context(), sel)
	})
}

// GetMonthlyRevenue handles GET /charts/monthly-revenue.
func (h *DashboardHandler) GetMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.MonthlyRevenue(r.Context(), sel)
	})
}

// GetSalesHeatmap handles GET /charts/sales-heatmap.
func (h *DashboardHandler) GetSalesHeatmap(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.RevenueHeatmap(r.Context(), sel)
	})
}

// GetPaymentTypes handles GET /charts/payment-types.
func (h *DashboardHandler) GetPaymentTypes(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.PaymentTypeCounts(r.Context(), sel)
	})
}

// GetDeliveryStatus handles GET /charts/delivery-status.
func (h *DashboardHandler) GetDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.DeliveryStatusCounts(r.Context(), sel)
	})
}

// GetReviewDelivery handles GET /charts/review-delivery.
func (h *DashboardHandler) GetReviewDelivery(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.DeliveryTimeByScore(r.Context(), sel)
	})
}

// GetTopCategories handles GET /charts/top-categories.
func (h *DashboardHandler) GetTopCategories(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.TopCategories(r.Context(), sel)
	})
}

// GetTopSellerStates handles GET /charts/top-seller-states.
func (h *DashboardHandler) GetTopSellerStates(w http.ResponseWriter, r *http.Request) {
	h.chart(w, r, func(sel analytics.Selection) (interface{}, error) {
		return h.service.TopSellerStates(r.Context(), sel)
	})
}

// chart factors the parse/serve/respond cycle shared by every chart route.
func (h *DashboardHandler) chart(w http.ResponseWriter, r *http.Request, fn func(analytics.Selection) (interface{}, error)) {
	sel, aerr := h.parseSelection(r)
	if aerr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(aerr))
		return
	}
	data, err := fn(sel)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respond(w, r, data)
}

// ExportOrders handles GET /export/orders, streaming the filtered table as
// an Excel workbook.
func (h *DashboardHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	sel, aerr := h.parseSelection(r)
	if aerr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(aerr))
		return
	}

	// The workbook is assembled in memory and written in one shot, so any
	// failure happens before the first response byte.
	var buf bytes.Buffer
	if err := h.service.ExportOrders(r.Context(), sel, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.ErrorContext(r.Context(), "export write failed", slog.String("error", err.Error()))
	}
}
