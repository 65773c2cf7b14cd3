package observation

import (
	"math"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
)

const (
	DefaultProductHours = 24
	DefaultAllHours     = 6

	maxHours         = 24 * 365
	maxProductIDSize = 128
)

type HistoryRequest struct {
	ProductID string
	Hours     float64 // zero means the endpoint default
	Format    string  // "json" or "csv"
}

func (r HistoryRequest) validateHours() *apperror.AppError {
	if math.IsNaN(r.Hours) || math.IsInf(r.Hours, 0) || r.Hours < 0 {
		return apperror.New(apperror.BadRequest, "hours must be a positive number")
	}
	if r.Hours > maxHours {
		return apperror.New(apperror.BadRequest, "hours must not exceed 8760")
	}
	return nil
}

// ValidateProduct checks a single-product history request.
func (r HistoryRequest) ValidateProduct() *apperror.AppError {
	if r.ProductID == "" {
		return apperror.New(apperror.BadRequest, "productId is required")
	}
	if len(r.ProductID) > maxProductIDSize {
		return apperror.New(apperror.BadRequest, "productId is too long")
	}
	if r.Format != "" && r.Format != "json" && r.Format != "csv" {
		return apperror.New(apperror.BadRequest, "format must be json or csv")
	}
	return r.validateHours()
}

// ValidateAll checks an all-products history request.
func (r HistoryRequest) ValidateAll() *apperror.AppError {
	return r.validateHours()
}
