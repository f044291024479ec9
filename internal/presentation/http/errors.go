package httppresentation

import (
	"errors"
	"net/http"

	appOrder "github.com/Zhima-Mochi/orderflow/internal/application/order"
	domainOrder "github.com/Zhima-Mochi/orderflow/internal/domain/order"
	domainPayment "github.com/Zhima-Mochi/orderflow/internal/domain/payment"
	domainStock "github.com/Zhima-Mochi/orderflow/internal/domain/stock"
	"github.com/Zhima-Mochi/orderflow/internal/infrastructure/resilient"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	kind   string
	status int
}

// Stable error kinds per sentinel. Checked in order, so the most specific
// classifications come before the executor wrappers.
var errorMappings = []errorMapping{
	{domainStock.ErrInsufficientStock, "InsufficientStock", http.StatusConflict},
	{domainPayment.ErrInsufficientFunds, "InsufficientFunds", http.StatusPaymentRequired},
	{resilient.ErrUnavailable, "DependencyUnavailable", http.StatusServiceUnavailable},
	{domainOrder.ErrInvalidState, "InvalidState", http.StatusConflict},
	{domainPayment.ErrInvalidState, "InvalidPaymentState", http.StatusConflict},
	{domainOrder.ErrDuplicateID, "DuplicateId", http.StatusConflict},
	{domainPayment.ErrDuplicateID, "DuplicateId", http.StatusConflict},
	{domainOrder.ErrNotFound, "OrderNotFound", http.StatusNotFound},
	{domainPayment.ErrNotFound, "PaymentNotFound", http.StatusNotFound},
	{domainStock.ErrNotFound, "ProductNotFound", http.StatusNotFound},
	{domainOrder.ErrNoItems, "NoItems", http.StatusBadRequest},
	{domainOrder.ErrInvalidQuantity, "InvalidQuantity", http.StatusBadRequest},
	{domainStock.ErrInvalidQuantity, "InvalidQuantity", http.StatusBadRequest},
	{domainOrder.ErrInvalidPrice, "InvalidPrice", http.StatusBadRequest},
	{domainPayment.ErrInvalidAmount, "InvalidAmount", http.StatusBadRequest},
	{domainPayment.ErrInvalidMethod, "InvalidMethod", http.StatusBadRequest},
	{appOrder.ErrOrderIDRequired, "Validation", http.StatusBadRequest},
	{appOrder.ErrCustomerIDRequired, "Validation", http.StatusBadRequest},
	{appOrder.ErrProductIDRequired, "Validation", http.StatusBadRequest},
}

// classify maps a workflow error to its stable kind tag and HTTP status.
// Unknown errors are reported as internal without leaking details.
func classify(err error) (string, int) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.kind, m.status
		}
	}
	return "Internal", http.StatusInternalServerError
}
