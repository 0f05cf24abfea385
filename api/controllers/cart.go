package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spacestar-shop/backend/api/responses"
	"github.com/spacestar-shop/backend/api/validators"
	cartsvc "github.com/spacestar-shop/backend/internal/cart"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

// CartNew mints a cart id and persists an empty cart for it.
func CartNew(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cart, err := svc.NewCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

// CartGet returns the cart, creating an empty one on first sight of the id.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cart, err := svc.GetOrCreate(r.Context(), chi.URLParam(r, "cartId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type addCartItemRequest struct {
	ProductID       string   `json:"product_id" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Image           string   `json:"image"`
	Size            string   `json:"size"`
	AvailableSizes  []string `json:"available_sizes"`
	Color           string   `json:"color"`
	AvailableColors []string `json:"available_colors"`
	Quantity        int      `json:"quantity" validate:"required,min=1"`
	Price           int64    `json:"price" validate:"gte=0"`
}

// CartAddItem merges an item into the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), chi.URLParam(r, "cartId"), cartsvc.AddItemInput{
			ProductID:       payload.ProductID,
			Name:            payload.Name,
			Image:           payload.Image,
			Size:            payload.Size,
			AvailableSizes:  payload.AvailableSizes,
			Color:           payload.Color,
			AvailableColors: payload.AvailableColors,
			Quantity:        payload.Quantity,
			Price:           payload.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type updateCartItemRequest struct {
	Size     *string `json:"size"`
	Color    *string `json:"color"`
	Quantity *int    `json:"quantity" validate:"omitempty,min=1"`
}

// CartUpdateItem applies a partial update to one cart line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "itemId"), cartsvc.UpdateItemInput{
			Size:     payload.Size,
			Color:    payload.Color,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

type addSizeVariantRequest struct {
	Size     string `json:"size" validate:"required"`
	Quantity int    `json:"quantity" validate:"omitempty,min=1"`
}

// CartAddSizeVariant clones an existing product line under another size.
func CartAddSizeVariant(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addSizeVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddVariant(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId"), payload.Size, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveItem pulls one line out of the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cart, err := svc.RemoveItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the cart but keeps it alive.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cart, err := svc.Clear(r.Context(), chi.URLParam(r, "cartId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}
