package orders

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists orders in the document store.
type Repository interface {
	Insert(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Order, error)
	FindAll(ctx context.Context) ([]Order, error)
	Search(ctx context.Context, term string) ([]Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status) (bool, error)
	// MarkPaid commits the unpaid -> paid transition. The status filter makes
	// the update match at most once per order, whatever the caller count.
	MarkPaid(ctx context.Context, id primitive.ObjectID, transactionID string) (bool, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(collection *mongo.Collection) Repository {
	return &mongoRepository{collection: collection}
}

func (m *mongoRepository) Insert(ctx context.Context, order *Order) error {
	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *mongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*Order, error) {
	var order Order
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *mongoRepository) FindAll(ctx context.Context) ([]Order, error) {
	return m.find(ctx, bson.M{})
}

// Search matches the term case-insensitively against the customer contact
// fields and the discount code. The term is quoted so user input cannot
// smuggle regex metacharacters into the query.
func (m *mongoRepository) Search(ctx context.Context, term string) ([]Order, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"customer.first_name": pattern},
		bson.M{"customer.last_name": pattern},
		bson.M{"customer.email": pattern},
		bson.M{"customer.phone": pattern},
		bson.M{"customer.address": pattern},
		bson.M{"customer.city": pattern},
		bson.M{"customer.discount_code": pattern},
	}}
	return m.find(ctx, filter)
}

func (m *mongoRepository) find(ctx context.Context, filter bson.M) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := []Order{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return results, nil
}

func (m *mongoRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status) (bool, error) {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, transactionID string) (bool, error) {
	filter := bson.M{"_id": id, "status": StatusUnpaid}
	update := bson.M{"$set": bson.M{
		"status":         StatusPaid,
		"transaction_id": transactionID,
		"updated_at":     time.Now(),
	}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (bool, error) {
	fields["updated_at"] = time.Now()

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *mongoRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return result.DeletedCount > 0, nil
}
