package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	inventoryapp "github.com/northmart/go-order-processing/internal/domains/inventory/application"
	inventorydomain "github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	inventoryports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
	ordersapp "github.com/northmart/go-order-processing/internal/domains/orders/application"
	ordersdomain "github.com/northmart/go-order-processing/internal/domains/orders/domain"
	ordersports "github.com/northmart/go-order-processing/internal/domains/orders/ports"
	rollupports "github.com/northmart/go-order-processing/internal/domains/rollup/ports"
	apierrors "github.com/northmart/go-order-processing/internal/shared/errors"
)

// responder maps application errors onto RFC 7807 responses. Mapper order
// matters: creation failures wrap stock errors and must resolve as conflicts,
// so the order mapper runs before the stock mapper.
var responder = apierrors.NewChainedResponder("",
	orderProblemMapper,
	stockProblemMapper,
	rollupProblemMapper,
)

func orderProblemMapper(err error) (apierrors.ProblemDetail, bool) {
	var creation *ordersapp.CreationFailedError
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.As(err, &creation):
		return apierrors.ErrConflict.
			WithDetail(err.Error()).
			WithExtension("productId", creation.ProductID), true
	case errors.Is(err, ordersapp.ErrCreationFailed):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrProductUnavailable),
		errors.Is(err, ordersapp.ErrStockShort),
		errors.Is(err, ordersdomain.ErrInvalidStateTransition):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrOrderNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func stockProblemMapper(err error) (apierrors.ProblemDetail, bool) {
	var conflict *inventorydomain.VersionConflictError
	switch {
	case errors.As(err, &conflict):
		return apierrors.ErrConflict.
			WithDetail(err.Error()).
			WithExtension("currentVersion", conflict.CurrentVersion), true
	case errors.Is(err, inventorydomain.ErrVersionConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, inventorydomain.ErrInsufficientStock):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, inventoryapp.ErrInvalidInput),
		errors.Is(err, inventorydomain.ErrInvalidQuantity),
		errors.Is(err, inventorydomain.ErrNegativeQuantity):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, inventoryports.ErrProductNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func rollupProblemMapper(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, rollupports.ErrNoSnapshot) {
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func respondServiceError(c *gin.Context, err error) {
	responder.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	responder.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

// parseIDParam reads a positive integer path parameter, responding 400 itself
// on failure.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		responder.Respond(c, apierrors.ErrBadRequest.WithDetail(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// parseQueryID validates a positive integer query parameter, responding 400
// itself on failure.
func parseQueryID(c *gin.Context, name, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		responder.Respond(c, apierrors.ErrBadRequest.WithDetail(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
