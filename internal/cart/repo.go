package cart

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists carts in the document store. Line mutations are atomic
// update expressions so concurrent writers never overwrite each other's lines.
type Repository interface {
	FindByCartID(ctx context.Context, cartID string) (*Cart, error)
	Insert(ctx context.Context, cart *Cart) error
	// IncrementLine folds qty into the line matching the variant triple and
	// re-prices it at the incoming price so total stays price times quantity.
	// Returns false when no such line (or cart) exists.
	IncrementLine(ctx context.Context, cartID string, productID primitive.ObjectID, size, color string, qty int, price int64) (bool, error)
	// PushLineIfAbsent appends the line unless a line with the same variant
	// triple already exists, creating the cart when needed. Returns false when
	// the triple was present or the insert lost a race, in which case the
	// caller retries the increment.
	PushLineIfAbsent(ctx context.Context, cartID string, item LineItem) (bool, error)
	SetLineFields(ctx context.Context, cartID string, itemID primitive.ObjectID, fields bson.M) (bool, error)
	PullLine(ctx context.Context, cartID string, itemID primitive.ObjectID) (bool, error)
	ClearLines(ctx context.Context, cartID string) (bool, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(collection *mongo.Collection) Repository {
	return &mongoRepository{collection: collection}
}

// EnsureIndexes creates the unique cart_id index. The index turns a lost
// insert race in PushLineIfAbsent into a duplicate key error instead of a
// second document for the same cart.
func EnsureIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cart_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure cart indexes: %w", err)
	}
	return nil
}

func (m *mongoRepository) FindByCartID(ctx context.Context, cartID string) (*Cart, error) {
	var cart Cart
	if err := m.collection.FindOne(ctx, bson.M{"cart_id": cartID}).Decode(&cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (m *mongoRepository) Insert(ctx context.Context, cart *Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []LineItem{}
	}

	if _, err := m.collection.InsertOne(ctx, cart); err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) IncrementLine(ctx context.Context, cartID string, productID primitive.ObjectID, size, color string, qty int, price int64) (bool, error) {
	filter := bson.M{
		"cart_id": cartID,
		"items": bson.M{"$elemMatch": bson.M{
			"product_id": productID,
			"size":       size,
			"color":      color,
		}},
	}
	isLine := bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$$line.product_id", productID}},
		bson.M{"$eq": bson.A{"$$line.size", size}},
		bson.M{"$eq": bson.A{"$$line.color", color}},
	}}
	newQuantity := bson.M{"$add": bson.A{"$$line.quantity", qty}}
	// Re-pricing at the incoming price keeps total == price * quantity when
	// the product price changed since the line was added.
	merged := bson.M{"$mergeObjects": bson.A{"$$line", bson.M{
		"quantity": newQuantity,
		"price":    price,
		"total":    bson.M{"$multiply": bson.A{price, newQuantity}},
	}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"items": bson.M{"$map": bson.M{
				"input": "$items",
				"as":    "line",
				"in":    bson.M{"$cond": bson.A{isLine, merged, "$$line"}},
			}},
			"updated_at": "$$NOW",
		}}},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("increment cart line: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoRepository) PushLineIfAbsent(ctx context.Context, cartID string, item LineItem) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"cart_id": cartID,
		"items": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"product_id": item.ProductID,
			"size":       item.Size,
			"color":      item.Color,
		}}},
	}
	update := bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The filter misses an existing cart both when the triple is already
		// present and when another writer inserted the document first; either
		// way the upsert's insert trips the unique cart_id index. Report the
		// push as lost so the caller retries the increment.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("push cart line: %w", err)
	}
	return result.MatchedCount > 0 || result.UpsertedCount > 0, nil
}

func (m *mongoRepository) SetLineFields(ctx context.Context, cartID string, itemID primitive.ObjectID, fields bson.M) (bool, error) {
	set := bson.M{"updated_at": time.Now()}
	for key, value := range fields {
		set["items.$[line]."+key] = value
	}

	filter := bson.M{
		"cart_id": cartID,
		"items":   bson.M{"$elemMatch": bson.M{"_id": itemID}},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"line._id": itemID}},
	})

	result, err := m.collection.UpdateOne(ctx, filter, bson.M{"$set": set}, opts)
	if err != nil {
		return false, fmt.Errorf("update cart line: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoRepository) PullLine(ctx context.Context, cartID string, itemID primitive.ObjectID) (bool, error) {
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"_id": itemID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"cart_id": cartID}, update)
	if err != nil {
		return false, fmt.Errorf("remove cart line: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoRepository) ClearLines(ctx context.Context, cartID string) (bool, error) {
	update := bson.M{
		"$set": bson.M{"items": []LineItem{}, "updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"cart_id": cartID}, update)
	if err != nil {
		return false, fmt.Errorf("clear cart: %w", err)
	}
	return result.MatchedCount > 0, nil
}
