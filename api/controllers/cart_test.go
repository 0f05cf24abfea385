package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	cartsvc "github.com/spacestar-shop/backend/internal/cart"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
)

type stubCartService struct {
	cart *cartsvc.Cart
	err  error

	addedCartID string
	addedInput  cartsvc.AddItemInput
}

func (s *stubCartService) GetOrCreate(ctx context.Context, cartID string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) NewCart(ctx context.Context) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, cartID string, input cartsvc.AddItemInput) (*cartsvc.Cart, error) {
	s.addedCartID = cartID
	s.addedInput = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, cartID, itemID string, patch cartsvc.UpdateItemInput) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddVariant(ctx context.Context, cartID, productID, size string, quantity int) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, cartID, itemID string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, cartID string) (*cartsvc.Cart, error) {
	return s.cart, s.err
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCartAddItemSuccess(t *testing.T) {
	productID := primitive.NewObjectID()
	stub := &stubCartService{cart: &cartsvc.Cart{CartID: "cart-1", Items: []cartsvc.LineItem{{ProductID: productID, Quantity: 2}}}}
	handler := CartAddItem(stub, nil)

	body := `{"product_id":"` + productID.Hex() + `","name":"Galaxy Tee","quantity":2,"price":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/cart-1/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParams(req, map[string]string{"cartId": "cart-1"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if stub.addedCartID != "cart-1" {
		t.Fatalf("expected cart-1, got %q", stub.addedCartID)
	}
	if stub.addedInput.Quantity != 2 || stub.addedInput.Price != 500 {
		t.Fatalf("unexpected input %+v", stub.addedInput)
	}

	var envelope struct {
		Data cartsvc.Cart `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CartID != "cart-1" {
		t.Fatalf("unexpected cart id %q", envelope.Data.CartID)
	}
}

func TestCartAddItemRejectsMissingQuantity(t *testing.T) {
	stub := &stubCartService{}
	handler := CartAddItem(stub, nil)

	body := `{"product_id":"abc","name":"Galaxy Tee","price":500}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/cart-1/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParams(req, map[string]string{"cartId": "cart-1"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if stub.addedCartID != "" {
		t.Fatal("service must not be called for an invalid payload")
	}
}

func TestCartAddItemRejectsUnknownFields(t *testing.T) {
	handler := CartAddItem(&stubCartService{}, nil)

	body := `{"product_id":"abc","name":"Tee","quantity":1,"price":500,"discount":99}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/cart-1/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParams(req, map[string]string{"cartId": "cart-1"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartGetNotFound(t *testing.T) {
	handler := CartGet(&stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart/nope", nil)
	req = withURLParams(req, map[string]string{"cartId": "nope"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}

func TestCartNewReturnsCreated(t *testing.T) {
	stub := &stubCartService{cart: &cartsvc.Cart{CartID: "fresh", Items: []cartsvc.LineItem{}}}
	handler := CartNew(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/new", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}
