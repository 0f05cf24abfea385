package orders

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

// Service exposes order operations to checkout, the payment flow, and the
// admin panel.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	// List returns all orders, filtered by a free-text customer search when the
	// term is non-empty.
	List(ctx context.Context, searchTerm string) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	Update(ctx context.Context, id string, patch UpdateInput) (*Order, error)
	Delete(ctx context.Context, id string) error
	// TransitionPaid moves an unpaid order to paid, recording the provider
	// transaction id. Replays with the same transaction id succeed without a
	// second write; a different transaction id on a paid order is rejected.
	TransitionPaid(ctx context.Context, id, transactionID string) (*Order, error)
}

type service struct {
	repo Repository
}

// NewService builds an order service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

// CreateInput is the checkout payload for a new order.
type CreateInput struct {
	Customer Customer
	Items    []Item
}

// UpdateInput applies partial changes to an order. Nil fields are left
// untouched; the order id and timestamps are never client-writable.
type UpdateInput struct {
	Customer      *Customer
	Items         *[]Item
	Status        *Status
	TransactionID *string
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	items, err := normalizeItems(input.Items)
	if err != nil {
		return nil, err
	}

	order := &Order{
		Customer: input.Customer,
		Items:    items,
		Subtotal: subtotalOf(items),
		Status:   StatusUnpaid,
	}
	if err := s.repo.Insert(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, oid)
}

func (s *service) List(ctx context.Context, searchTerm string) ([]Order, error) {
	term := strings.TrimSpace(searchTerm)

	var (
		results []Order
		err     error
	)
	if term == "" {
		results, err = s.repo.FindAll(ctx)
	} else {
		results, err = s.repo.Search(ctx, term)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list orders")
	}
	return results, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	matched, err := s.repo.UpdateStatus(ctx, oid, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "update order status")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.load(ctx, oid)
}

func (s *service) Update(ctx context.Context, id string, patch UpdateInput) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if patch.Customer != nil {
		fields["customer"] = *patch.Customer
	}
	if patch.Items != nil {
		items, err := normalizeItems(*patch.Items)
		if err != nil {
			return nil, err
		}
		fields["items"] = items
		fields["subtotal"] = subtotalOf(items)
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.TransactionID != nil {
		fields["transaction_id"] = *patch.TransactionID
	}
	if len(fields) == 0 {
		return s.load(ctx, oid)
	}

	matched, err := s.repo.Update(ctx, oid, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "update order")
	}
	if !matched {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.load(ctx, oid)
}

func (s *service) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, oid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "delete order")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (s *service) TransitionPaid(ctx context.Context, id, transactionID string) (*Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	matched, err := s.repo.MarkPaid(ctx, oid, transactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "mark order paid")
	}
	if matched {
		return s.load(ctx, oid)
	}

	// The conditional update missed: the order is gone, or it is no longer
	// unpaid. A replay carrying the transaction id we already recorded is
	// treated as settled.
	order, err := s.load(ctx, oid)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusPaid && order.TransactionID != nil && *order.TransactionID == transactionID {
		return order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment").
		WithDetails(map[string]any{"status": order.Status})
}

func (s *service) load(ctx context.Context, id primitive.ObjectID) (*Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load order")
	}
	return order, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return oid, nil
}

func normalizeItems(items []Item) ([]Item, error) {
	normalized := make([]Item, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		if item.Price < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		item.Total = item.Price * int64(item.Quantity)
		normalized[i] = item
	}
	return normalized, nil
}
