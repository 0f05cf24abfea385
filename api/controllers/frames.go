package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spacestar-shop/backend/api/responses"
	"github.com/spacestar-shop/backend/api/validators"
	catalogsvc "github.com/spacestar-shop/backend/internal/catalog"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"github.com/spacestar-shop/backend/pkg/logger"
)

// FrameList returns all frames.
func FrameList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		frames, err := svc.ListFrames(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, frames)
	}
}

// FrameGet returns one frame by id.
func FrameGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		frame, err := svc.GetFrame(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, frame)
	}
}

type frameRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" validate:"gte=0"`
	Image       string   `json:"image"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	InStock     bool     `json:"in_stock"`
}

// FrameCreate adds a frame to the catalog.
func FrameCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload frameRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		frame, err := svc.CreateFrame(r.Context(), catalogsvc.FrameInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			Image:       payload.Image,
			Sizes:       payload.Sizes,
			Colors:      payload.Colors,
			InStock:     payload.InStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, frame)
	}
}

type framePatchRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price" validate:"omitempty,gte=0"`
	Image       *string   `json:"image"`
	Sizes       *[]string `json:"sizes"`
	Colors      *[]string `json:"colors"`
	InStock     *bool     `json:"in_stock"`
}

// FrameUpdate applies a partial update to a frame.
func FrameUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload framePatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		frame, err := svc.UpdateFrame(r.Context(), chi.URLParam(r, "id"), catalogsvc.FramePatch{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			Image:       payload.Image,
			Sizes:       payload.Sizes,
			Colors:      payload.Colors,
			InStock:     payload.InStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, frame)
	}
}

// FrameDelete removes a frame from the catalog.
func FrameDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		if err := svc.DeleteFrame(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// FrameOptions lists the sizes and colors in use across frames.
func FrameOptions(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		opts, err := svc.FrameOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, opts)
	}
}
