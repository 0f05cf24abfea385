package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacestar-shop/backend/internal/orders"
	"github.com/spacestar-shop/backend/pkg/bkash"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

// Callback field values the provider sends for a completed payment. Anything
// else means the shopper aborted or the charge failed.
const (
	callbackStatusSuccess = "success"
	trxStatusCompleted    = "Completed"
)

// Gateway is the slice of the provider client the payment flow needs.
type Gateway interface {
	CreatePayment(ctx context.Context, orderID string, amount int64) (*bkash.CreatePaymentResponse, error)
	ExecutePayment(ctx context.Context, paymentID string) (*bkash.ExecutePaymentResponse, error)
}

// Service drives the checkout payment flow: initiation against an unpaid
// order, then settlement from the provider callback.
type Service interface {
	Initiate(ctx context.Context, orderID string) (*bkash.CreatePaymentResponse, error)
	HandleCallback(ctx context.Context, input CallbackInput) (*orders.Order, error)
}

// CallbackInput carries the redirect parameters the provider appends to the
// callback URL.
type CallbackInput struct {
	PaymentID         string
	Status            string
	TransactionStatus string
}

type service struct {
	gateway Gateway
	orders  orders.Service
	logg    *logger.Logger
}

func NewService(gateway Gateway, orderSvc orders.Service, logg *logger.Logger) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &service{gateway: gateway, orders: orderSvc, logg: logg}, nil
}

// Initiate creates a provider payment for the order's subtotal. Orders that
// are already paid or cancelled never reach the gateway.
func (s *service) Initiate(ctx context.Context, orderID string) (*bkash.CreatePaymentResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != orders.StatusUnpaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
			WithDetails(map[string]any{"status": order.Status})
	}

	resp, err := s.gateway.CreatePayment(ctx, order.ID.Hex(), order.Subtotal)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.Hex())
		logCtx = s.logg.WithPaymentID(logCtx, resp.PaymentID)
		logCtx = s.logg.WithField(logCtx, "amount", order.Subtotal)
		s.logg.Info(logCtx, "payment initiated")
	}
	return resp, nil
}

// HandleCallback settles a payment from the provider redirect. The callback
// parameters alone are never trusted: the payment is re-verified with the
// provider, and the order id is taken from the verification response rather
// than from anything the shopper's browser carried.
func (s *service) HandleCallback(ctx context.Context, input CallbackInput) (*orders.Order, error) {
	if strings.TrimSpace(input.PaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if input.Status != callbackStatusSuccess || input.TransactionStatus != trxStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCallback, "payment was not completed").
			WithDetails(map[string]any{
				"status":             input.Status,
				"transaction_status": input.TransactionStatus,
			})
	}

	verification, err := s.gateway.ExecutePayment(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if !verification.Success() {
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "provider did not confirm the payment").
			WithDetails(map[string]any{
				"status_code":    verification.StatusCode,
				"status_message": verification.StatusMessage,
			})
	}
	if verification.MerchantInvoiceNumber == "" || verification.TrxID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "verification response missing order reference")
	}

	order, err := s.orders.TransitionPaid(ctx, verification.MerchantInvoiceNumber, verification.TrxID)
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.Hex())
		logCtx = s.logg.WithPaymentID(logCtx, input.PaymentID)
		logCtx = s.logg.WithField(logCtx, "transaction_id", verification.TrxID)
		s.logg.Info(logCtx, "payment settled")
	}
	return order, nil
}
