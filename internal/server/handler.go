package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
	"github.com/ahmethakanbesel/bazaar-history/internal/observation"
)

type handler struct {
	svc *observation.Service
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) current(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.Current(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (h *handler) historyFor(w http.ResponseWriter, r *http.Request) {
	hours, appErr := parseHours(r)
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}

	req := observation.HistoryRequest{
		ProductID: r.PathValue("productId"),
		Hours:     hours,
		Format:    r.URL.Query().Get("format"),
	}
	rows, err := h.svc.HistoryFor(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	if req.Format == "csv" {
		writeCSV(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) historyAll(w http.ResponseWriter, r *http.Request) {
	hours, appErr := parseHours(r)
	if appErr != nil {
		writeError(w, appErr.HTTPStatus(), appErr.Message())
		return
	}

	grouped, err := h.svc.HistoryAll(r.Context(), observation.HistoryRequest{Hours: hours})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// parseHours reads the optional hours query parameter. Zero means the
// endpoint default.
func parseHours(r *http.Request) (float64, *apperror.AppError) {
	v := r.URL.Query().Get("hours")
	if v == "" {
		return 0, nil
	}
	hours, err := strconv.ParseFloat(v, 64)
	if err != nil || hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, apperror.New(apperror.BadRequest, "hours must be a positive number")
	}
	return hours, nil
}
