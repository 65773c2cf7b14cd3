package server

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
	"github.com/ahmethakanbesel/bazaar-history/internal/observation"
)

type APIResponse[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[T]{
		Message: "ok",
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse[string]{
		Message: message,
		Data:    "",
	})
}

// writeAppError logs the underlying cause and writes the client-visible form.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperror.FromError(err)
	if ae.HTTPStatus() >= http.StatusInternalServerError {
		slog.Error("request failed", //nolint:gosec // structured logging, values are not interpolated into format string
			"path", r.URL.Path,
			"error", err,
			"requestID", r.Context().Value(requestIDKey),
		)
	}
	writeError(w, ae.HTTPStatus(), ae.Message())
}

func writeCSV(w http.ResponseWriter, rows []observation.Observation) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=history.csv")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ProductID", "Timestamp", "Time", "BuyPrice", "SellPrice", "BuyVolume", "SellVolume"})
	for _, o := range rows {
		_ = cw.Write([]string{
			o.ProductID,
			strconv.FormatInt(o.Timestamp, 10),
			time.UnixMilli(o.Timestamp).UTC().Format(time.RFC3339),
			strconv.FormatFloat(o.BuyPrice, 'f', -1, 64),
			strconv.FormatFloat(o.SellPrice, 'f', -1, 64),
			strconv.FormatInt(o.BuyVolume, 10),
			strconv.FormatInt(o.SellVolume, 10),
		})
	}
	cw.Flush()
}
