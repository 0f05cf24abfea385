package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service exposes the catalog to the storefront and the admin panel.
type Service interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)

	ListFrames(ctx context.Context) ([]Frame, error)
	GetFrame(ctx context.Context, id string) (*Frame, error)
	CreateFrame(ctx context.Context, input FrameInput) (*Frame, error)
	UpdateFrame(ctx context.Context, id string, patch FramePatch) (*Frame, error)
	DeleteFrame(ctx context.Context, id string) error
	FrameOptions(ctx context.Context) (*FrameOptions, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// ProductInput is the admin payload for a new product.
type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Images      []string
	Category    string
	Sizes       []string
	Colors      []string
	InStock     bool
	Featured    bool
}

// ProductPatch applies partial changes; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *int64
	Images      *[]string
	Category    *string
	Sizes       *[]string
	Colors      *[]string
	InStock     *bool
	Featured    *bool
}

// FrameInput is the admin payload for a new frame.
type FrameInput struct {
	Name        string
	Description string
	Price       int64
	Image       string
	Sizes       []string
	Colors      []string
	InStock     bool
}

// FramePatch applies partial changes; nil fields are left untouched.
type FramePatch struct {
	Name        *string
	Description *string
	Price       *int64
	Image       *string
	Sizes       *[]string
	Colors      *[]string
	InStock     *bool
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list products")
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindProduct(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "product")
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	product := &Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Images:      emptyIfNil(input.Images),
		Category:    input.Category,
		Sizes:       emptyIfNil(input.Sizes),
		Colors:      emptyIfNil(input.Colors),
		InStock:     input.InStock,
		Featured:    input.Featured,
	}
	if err := s.repo.InsertProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	fields := bson.M{}
	setIf(fields, "name", patch.Name)
	setIf(fields, "description", patch.Description)
	setIf(fields, "price", patch.Price)
	setIf(fields, "images", patch.Images)
	setIf(fields, "category", patch.Category)
	setIf(fields, "sizes", patch.Sizes)
	setIf(fields, "colors", patch.Colors)
	setIf(fields, "in_stock", patch.InStock)
	setIf(fields, "featured", patch.Featured)

	if len(fields) > 0 {
		matched, err := s.repo.UpdateProduct(ctx, oid, fields)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "update product")
		}
		if !matched {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
	}

	product, err := s.repo.FindProduct(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "product")
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseID(id, "product")
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteProduct(ctx, oid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.DistinctCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list categories")
	}
	return categories, nil
}

func (s *service) ListFrames(ctx context.Context) ([]Frame, error) {
	frames, err := s.repo.ListFrames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list frames")
	}
	return frames, nil
}

func (s *service) GetFrame(ctx context.Context, id string) (*Frame, error) {
	oid, err := parseID(id, "frame")
	if err != nil {
		return nil, err
	}

	frame, err := s.repo.FindFrame(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "frame")
	}
	return frame, nil
}

func (s *service) CreateFrame(ctx context.Context, input FrameInput) (*Frame, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "frame name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	frame := &Frame{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Image:       input.Image,
		Sizes:       emptyIfNil(input.Sizes),
		Colors:      emptyIfNil(input.Colors),
		InStock:     input.InStock,
	}
	if err := s.repo.InsertFrame(ctx, frame); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create frame")
	}
	return frame, nil
}

func (s *service) UpdateFrame(ctx context.Context, id string, patch FramePatch) (*Frame, error) {
	oid, err := parseID(id, "frame")
	if err != nil {
		return nil, err
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	fields := bson.M{}
	setIf(fields, "name", patch.Name)
	setIf(fields, "description", patch.Description)
	setIf(fields, "price", patch.Price)
	setIf(fields, "image", patch.Image)
	setIf(fields, "sizes", patch.Sizes)
	setIf(fields, "colors", patch.Colors)
	setIf(fields, "in_stock", patch.InStock)

	if len(fields) > 0 {
		matched, err := s.repo.UpdateFrame(ctx, oid, fields)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "update frame")
		}
		if !matched {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "frame not found")
		}
	}

	frame, err := s.repo.FindFrame(ctx, oid)
	if err != nil {
		return nil, storeErr(err, "frame")
	}
	return frame, nil
}

func (s *service) DeleteFrame(ctx context.Context, id string) error {
	oid, err := parseID(id, "frame")
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteFrame(ctx, oid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "delete frame")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "frame not found")
	}
	return nil
}

func (s *service) FrameOptions(ctx context.Context) (*FrameOptions, error) {
	opts, err := s.repo.DistinctFrameOptions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list frame options")
	}
	return opts, nil
}

func parseID(id, label string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label+" id")
	}
	return oid, nil
}

func storeErr(err error, label string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pkgerrors.New(pkgerrors.CodeNotFound, label+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeStore, err, "load "+label)
}

func setIf[T any](fields bson.M, key string, value *T) {
	if value != nil {
		fields[key] = *value
	}
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
