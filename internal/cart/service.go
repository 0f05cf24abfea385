package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service exposes cart operations to the storefront.
type Service interface {
	GetOrCreate(ctx context.Context, cartID string) (*Cart, error)
	NewCart(ctx context.Context) (*Cart, error)
	AddItem(ctx context.Context, cartID string, input AddItemInput) (*Cart, error)
	UpdateItem(ctx context.Context, cartID, itemID string, patch UpdateItemInput) (*Cart, error)
	AddVariant(ctx context.Context, cartID, productID, size string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error)
	Clear(ctx context.Context, cartID string) (*Cart, error)
}

type service struct {
	repo Repository
}

// NewService builds a cart service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo}, nil
}

// AddItemInput captures the payload for a new or merged cart line.
type AddItemInput struct {
	ProductID       string
	Name            string
	Image           string
	Size            string
	AvailableSizes  []string
	Color           string
	AvailableColors []string
	Quantity        int
	Price           int64
}

// UpdateItemInput applies partial changes to an existing line.
type UpdateItemInput struct {
	Size     *string
	Color    *string
	Quantity *int
}

func (s *service) GetOrCreate(ctx context.Context, cartID string) (*Cart, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}

	cart, err := s.repo.FindByCartID(ctx, cartID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load cart")
	}

	fresh := &Cart{CartID: cartID, Items: []LineItem{}}
	if err := s.repo.Insert(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create cart")
	}
	return fresh, nil
}

func (s *service) NewCart(ctx context.Context) (*Cart, error) {
	fresh := &Cart{CartID: uuid.NewString(), Items: []LineItem{}}
	if err := s.repo.Insert(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create cart")
	}
	return fresh, nil
}

func (s *service) AddItem(ctx context.Context, cartID string, input AddItemInput) (*Cart, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}

	line := buildLine(productID, input)
	if err := s.mergeLine(ctx, cartID, line); err != nil {
		return nil, err
	}
	return s.reload(ctx, cartID)
}

// mergeLine folds the line into the cart while holding the one-line-per-triple
// invariant: increment the existing line, otherwise append unless the triple
// raced in concurrently, in which case the increment is retried once.
func (s *service) mergeLine(ctx context.Context, cartID string, line LineItem) error {
	for attempt := 0; attempt < 2; attempt++ {
		merged, err := s.repo.IncrementLine(ctx, cartID, line.ProductID, line.Size, line.Color, line.Quantity, line.Price)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "merge cart line")
		}
		if merged {
			return nil
		}

		pushed, err := s.repo.PushLineIfAbsent(ctx, cartID, line)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "append cart line")
		}
		if pushed {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "cart line changed concurrently")
}

func (s *service) UpdateItem(ctx context.Context, cartID, itemID string, patch UpdateItemInput) (*Cart, error) {
	itemOID, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.requireCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item := cart.findItem(itemOID)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	fields := bson.M{}
	if patch.Size != nil {
		fields["size"] = *patch.Size
	}
	if patch.Color != nil {
		fields["color"] = *patch.Color
	}
	if patch.Quantity != nil {
		fields["quantity"] = *patch.Quantity
		fields["total"] = item.Price * int64(*patch.Quantity)
	}
	if len(fields) == 0 {
		return cart, nil
	}

	matched, err := s.repo.SetLineFields(ctx, cartID, itemOID, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "update cart item")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.reload(ctx, cartID)
}

func (s *service) AddVariant(ctx context.Context, cartID, productID, size string, quantity int) (*Cart, error) {
	productOID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	if quantity < 1 {
		quantity = 1
	}

	cart, err := s.requireCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	base := cart.findByProduct(productOID)
	if base == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found in cart")
	}

	now := time.Now()
	clone := *base
	clone.ID = primitive.NewObjectID()
	clone.Size = size
	clone.Quantity = quantity
	clone.Total = base.Price * int64(quantity)
	clone.AddedAt = now
	clone.ShippingDate = shippingDateFrom(now)

	if err := s.mergeLine(ctx, cartID, clone); err != nil {
		return nil, err
	}
	return s.reload(ctx, cartID)
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	itemOID, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}

	// Removing a line that is already gone is a no-op; only a missing cart is
	// an error.
	matched, err := s.repo.PullLine(ctx, cartID, itemOID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "remove cart item")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return s.reload(ctx, cartID)
}

func (s *service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	matched, err := s.repo.ClearLines(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "clear cart")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return s.reload(ctx, cartID)
}

func (s *service) requireCart(ctx context.Context, cartID string) (*Cart, error) {
	if cartID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	cart, err := s.repo.FindByCartID(ctx, cartID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load cart")
	}
	return cart, nil
}

func (s *service) reload(ctx context.Context, cartID string) (*Cart, error) {
	cart, err := s.repo.FindByCartID(ctx, cartID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load cart")
	}
	return cart, nil
}

func buildLine(productID primitive.ObjectID, input AddItemInput) LineItem {
	now := time.Now()
	return LineItem{
		ID:              primitive.NewObjectID(),
		ProductID:       productID,
		Name:            input.Name,
		Image:           input.Image,
		Size:            input.Size,
		AvailableSizes:  input.AvailableSizes,
		Color:           input.Color,
		AvailableColors: input.AvailableColors,
		Quantity:        input.Quantity,
		Price:           input.Price,
		Total:           input.Price * int64(input.Quantity),
		AddedAt:         now,
		ShippingDate:    shippingDateFrom(now),
	}
}
