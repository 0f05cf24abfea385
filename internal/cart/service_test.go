package cart

import (
	"context"
	"testing"

	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// stubCartRepo emulates the document store's atomic line updates in memory.
type stubCartRepo struct {
	cart *Cart

	// raceOnFirstPush, when set, installs the competing cart before the
	// first push lands and reports that push as lost, the way the unique
	// cart_id index surfaces a lost insert race.
	raceOnFirstPush *Cart

	incrementCalls int
	pushCalls      int
}

func (s *stubCartRepo) FindByCartID(ctx context.Context, cartID string) (*Cart, error) {
	if s.cart == nil || s.cart.CartID != cartID {
		return nil, mongo.ErrNoDocuments
	}
	copied := *s.cart
	copied.Items = append([]LineItem(nil), s.cart.Items...)
	return &copied, nil
}

func (s *stubCartRepo) Insert(ctx context.Context, cart *Cart) error {
	s.cart = cart
	return nil
}

func (s *stubCartRepo) IncrementLine(ctx context.Context, cartID string, productID primitive.ObjectID, size, color string, qty int, price int64) (bool, error) {
	s.incrementCalls++
	if s.cart == nil || s.cart.CartID != cartID {
		return false, nil
	}
	for i := range s.cart.Items {
		item := &s.cart.Items[i]
		if item.ProductID == productID && item.Size == size && item.Color == color {
			item.Quantity += qty
			item.Price = price
			item.Total = price * int64(item.Quantity)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCartRepo) PushLineIfAbsent(ctx context.Context, cartID string, item LineItem) (bool, error) {
	s.pushCalls++
	if s.raceOnFirstPush != nil && s.cart == nil {
		s.cart = s.raceOnFirstPush
		s.raceOnFirstPush = nil
		return false, nil
	}
	if s.cart == nil || s.cart.CartID != cartID {
		s.cart = &Cart{CartID: cartID, Items: []LineItem{item}}
		return true, nil
	}
	for i := range s.cart.Items {
		existing := &s.cart.Items[i]
		if existing.ProductID == item.ProductID && existing.Size == item.Size && existing.Color == item.Color {
			return false, nil
		}
	}
	s.cart.Items = append(s.cart.Items, item)
	return true, nil
}

func (s *stubCartRepo) SetLineFields(ctx context.Context, cartID string, itemID primitive.ObjectID, fields bson.M) (bool, error) {
	if s.cart == nil || s.cart.CartID != cartID {
		return false, nil
	}
	for i := range s.cart.Items {
		item := &s.cart.Items[i]
		if item.ID != itemID {
			continue
		}
		if v, ok := fields["size"]; ok {
			item.Size = v.(string)
		}
		if v, ok := fields["color"]; ok {
			item.Color = v.(string)
		}
		if v, ok := fields["quantity"]; ok {
			item.Quantity = v.(int)
		}
		if v, ok := fields["total"]; ok {
			item.Total = v.(int64)
		}
		return true, nil
	}
	return false, nil
}

func (s *stubCartRepo) PullLine(ctx context.Context, cartID string, itemID primitive.ObjectID) (bool, error) {
	if s.cart == nil || s.cart.CartID != cartID {
		return false, nil
	}
	kept := s.cart.Items[:0]
	for _, item := range s.cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.cart.Items = kept
	return true, nil
}

func (s *stubCartRepo) ClearLines(ctx context.Context, cartID string) (bool, error) {
	if s.cart == nil || s.cart.CartID != cartID {
		return false, nil
	}
	s.cart.Items = []LineItem{}
	return true, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func addInput(productID string, size, color string, qty int, price int64) AddItemInput {
	return AddItemInput{
		ProductID: productID,
		Name:      "Galaxy Tee",
		Image:     "https://cdn.example.com/galaxy.jpg",
		Size:      size,
		Color:     color,
		Quantity:  qty,
		Price:     price,
	}
}

func TestAddItemMergesSameVariant(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 500)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 2, 500))
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Items))
	}
	line := cart.Items[0]
	if line.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", line.Quantity)
	}
	if line.Total != 1500 {
		t.Fatalf("expected total 1500, got %d", line.Total)
	}
}

func TestAddItemKeepsDistinctVariantsApart(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 500)); err != nil {
		t.Fatalf("add M: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "L", "black", 1, 500))
	if err != nil {
		t.Fatalf("add L: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines, got %d", len(cart.Items))
	}
}

func TestAddItemMergeRepricesDriftedLine(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 500)); err != nil {
		t.Fatalf("add at old price: %v", err)
	}
	cart, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 2, 600))
	if err != nil {
		t.Fatalf("add at new price: %v", err)
	}

	line := cart.Items[0]
	if line.Quantity != 3 || line.Price != 600 {
		t.Fatalf("expected merge re-priced at 600, got %+v", line)
	}
	if line.Total != line.Price*int64(line.Quantity) {
		t.Fatalf("total must equal price times quantity, got %+v", line)
	}
}

func TestAddItemRetriesWhenInsertRaceLoses(t *testing.T) {
	t.Parallel()

	productOID := primitive.NewObjectID()
	competing := &Cart{CartID: "cart-1", Items: []LineItem{{
		ID:        primitive.NewObjectID(),
		ProductID: productOID,
		Size:      "M",
		Color:     "black",
		Quantity:  1,
		Price:     500,
		Total:     500,
	}}}
	repo := &stubCartRepo{raceOnFirstPush: competing}
	svc := newTestService(t, repo)

	cart, err := svc.AddItem(context.Background(), "cart-1", addInput(productOID.Hex(), "M", "black", 2, 500))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected both writers to land on one line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", cart.Items[0].Quantity)
	}
	if repo.incrementCalls != 2 || repo.pushCalls != 1 {
		t.Fatalf("expected an increment retry after the lost insert, got %d increments and %d pushes", repo.incrementCalls, repo.pushCalls)
	}
}

func TestAddItemAppendsAfterLostInsertRace(t *testing.T) {
	t.Parallel()

	competing := &Cart{CartID: "cart-1", Items: []LineItem{{
		ID:        primitive.NewObjectID(),
		ProductID: primitive.NewObjectID(),
		Size:      "L",
		Color:     "white",
		Quantity:  1,
		Price:     900,
		Total:     900,
	}}}
	repo := &stubCartRepo{raceOnFirstPush: competing}
	svc := newTestService(t, repo)

	cart, err := svc.AddItem(context.Background(), "cart-1", addInput(primitive.NewObjectID().Hex(), "M", "black", 1, 500))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("expected both triples in the winner's document, got %d lines", len(cart.Items))
	}
	if repo.pushCalls != 2 {
		t.Fatalf("expected the push to be retried once, got %d pushes", repo.pushCalls)
	}
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{})

	_, err := svc.AddItem(context.Background(), "cart-1", addInput(primitive.NewObjectID().Hex(), "M", "black", 0, 500))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateItemQuantityRecomputesTotal(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	cart, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 750))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	qty := 4
	updated, err := svc.UpdateItem(context.Background(), "cart-1", cart.Items[0].ID.Hex(), UpdateItemInput{Quantity: &qty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", updated.Items[0].Quantity)
	}
	if updated.Items[0].Total != 3000 {
		t.Fatalf("expected total 3000, got %d", updated.Items[0].Total)
	}
}

func TestAddVariantClonesBaseLine(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 500)); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.AddVariant(context.Background(), "cart-1", productID, "XL", 2)
	if err != nil {
		t.Fatalf("add variant: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("expected two lines, got %d", len(cart.Items))
	}
	variant := cart.Items[1]
	if variant.Size != "XL" || variant.Quantity != 2 {
		t.Fatalf("unexpected variant line: %+v", variant)
	}
	if variant.Total != 1000 {
		t.Fatalf("expected total 1000, got %d", variant.Total)
	}
	if variant.Name != cart.Items[0].Name || variant.Price != cart.Items[0].Price {
		t.Fatalf("variant did not inherit base fields: %+v", variant)
	}
	if variant.ID == cart.Items[0].ID {
		t.Fatal("variant must get its own item id")
	}
}

func TestAddVariantMergesIntoExistingSize(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 500)); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.AddVariant(context.Background(), "cart-1", productID, "M", 2)
	if err != nil {
		t.Fatalf("add variant: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected merge into existing line, got %d lines", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}
}

func TestRemoveItemMissingLineIsNoOp(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 1, 500)); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.RemoveItem(context.Background(), "cart-1", primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatalf("remove unknown item: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected line to survive, got %d lines", len(cart.Items))
	}
}

func TestRemoveItemMissingCart(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{})

	_, err := svc.RemoveItem(context.Background(), "nope", primitive.NewObjectID().Hex())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetOrCreatePersistsEmptyCart(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)

	cart, err := svc.GetOrCreate(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if cart.CartID != "fresh" || len(cart.Items) != 0 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if repo.cart == nil {
		t.Fatal("expected cart to be persisted")
	}
}

func TestClearEmptiesCart(t *testing.T) {
	t.Parallel()

	repo := &stubCartRepo{}
	svc := newTestService(t, repo)
	productID := primitive.NewObjectID().Hex()

	if _, err := svc.AddItem(context.Background(), "cart-1", addInput(productID, "M", "black", 2, 500)); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.Clear(context.Background(), "cart-1")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
}
