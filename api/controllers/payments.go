package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spacestar-shop/backend/api/responses"
	paymentsvc "github.com/spacestar-shop/backend/internal/payments"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

// PaymentInitiate starts a provider payment for an unpaid order and hands the
// provider's response straight back to the storefront.
func PaymentInitiate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		resp, err := svc.Initiate(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, json.RawMessage(resp.Raw))
	}
}

// PaymentCallback settles a payment from the provider redirect. The provider
// appends the parameters to the query string; some integrations repost them
// as a JSON body, so both are accepted.
func PaymentCallback(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		input := callbackInput(r)
		order, err := svc.HandleCallback(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func callbackInput(r *http.Request) paymentsvc.CallbackInput {
	query := r.URL.Query()
	input := paymentsvc.CallbackInput{
		PaymentID:         query.Get("paymentID"),
		Status:            query.Get("status"),
		TransactionStatus: query.Get("transactionStatus"),
	}
	if input.PaymentID != "" {
		return input
	}

	var body struct {
		PaymentID         string `json:"paymentID"`
		Status            string `json:"status"`
		TransactionStatus string `json:"transactionStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		input.PaymentID = body.PaymentID
		input.Status = body.Status
		input.TransactionStatus = body.TransactionStatus
	}
	return input
}
