package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spacestar-shop/backend/api/responses"
	"github.com/spacestar-shop/backend/api/validators"
	ordersvc "github.com/spacestar-shop/backend/internal/orders"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

type customerPayload struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postal_code"`
	Notes        string `json:"notes"`
	DiscountCode string `json:"discount_code"`
}

type orderItemPayload struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Image     string `json:"image"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Price     int64  `json:"price" validate:"gte=0"`
}

type createOrderRequest struct {
	Customer customerPayload    `json:"customer" validate:"required"`
	Items    []orderItemPayload `json:"items" validate:"required,min=1,dive"`
}

func (p customerPayload) toCustomer() ordersvc.Customer {
	return ordersvc.Customer{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		City:         p.City,
		PostalCode:   p.PostalCode,
		Notes:        p.Notes,
		DiscountCode: p.DiscountCode,
	}
}

func toOrderItems(payloads []orderItemPayload) ([]ordersvc.Item, error) {
	items := make([]ordersvc.Item, 0, len(payloads))
	for _, p := range payloads {
		oid, err := parseObjectID(p.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, ordersvc.Item{
			ProductID: oid,
			Name:      p.Name,
			Image:     p.Image,
			Size:      p.Size,
			Color:     p.Color,
			Quantity:  p.Quantity,
			Price:     p.Price,
		})
	}
	return items, nil
}

// OrderCreate records a checkout as an unpaid order.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := toOrderItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), ordersvc.CreateInput{
			Customer: payload.Customer.toCustomer(),
			Items:    items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderList returns all orders, optionally filtered by a customer search term.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orders, err := svc.List(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// OrderGet returns one order by id.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		order, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderUpdateStatus sets the order status from the admin panel.
func OrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, ok := ordersvc.ParseStatus(payload.Status)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderRequest struct {
	Customer      *customerPayload    `json:"customer"`
	Items         *[]orderItemPayload `json:"items" validate:"omitempty,min=1,dive"`
	Status        *string             `json:"status"`
	TransactionID *string             `json:"transaction_id"`
}

// OrderUpdate applies a partial update. The order id is never writable.
func OrderUpdate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := ordersvc.UpdateInput{TransactionID: payload.TransactionID}
		if payload.Customer != nil {
			customer := payload.Customer.toCustomer()
			patch.Customer = &customer
		}
		if payload.Items != nil {
			items, err := toOrderItems(*payload.Items)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			patch.Items = &items
		}
		if payload.Status != nil {
			status, ok := ordersvc.ParseStatus(*payload.Status)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			patch.Status = &status
		}

		order, err := svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderDelete removes an order.
func OrderDelete(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
