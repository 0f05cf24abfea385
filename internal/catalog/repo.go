package catalog

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

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	Search   string
	Category string
}

// Repository persists the catalog collections.
type Repository interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	FindProduct(ctx context.Context, id primitive.ObjectID) (*Product, error)
	InsertProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, fields bson.M) (bool, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) (bool, error)
	DistinctCategories(ctx context.Context) ([]string, error)

	ListFrames(ctx context.Context) ([]Frame, error)
	FindFrame(ctx context.Context, id primitive.ObjectID) (*Frame, error)
	InsertFrame(ctx context.Context, frame *Frame) error
	UpdateFrame(ctx context.Context, id primitive.ObjectID, fields bson.M) (bool, error)
	DeleteFrame(ctx context.Context, id primitive.ObjectID) (bool, error)
	DistinctFrameOptions(ctx context.Context) (*FrameOptions, error)
}

type mongoRepository struct {
	products *mongo.Collection
	frames   *mongo.Collection
}

func NewRepository(products, frames *mongo.Collection) Repository {
	return &mongoRepository{products: products, frames: frames}
}

func (m *mongoRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.products.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := []Product{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return results, nil
}

func (m *mongoRepository) FindProduct(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	var product Product
	if err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (m *mongoRepository) InsertProduct(ctx context.Context, product *Product) error {
	now := time.Now()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := m.products.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *mongoRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, fields bson.M) (bool, error) {
	return updateByID(ctx, m.products, id, fields, "product")
}

func (m *mongoRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := m.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (m *mongoRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	values, err := m.products.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	return toStrings(values), nil
}

func (m *mongoRepository) ListFrames(ctx context.Context) ([]Frame, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.frames.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find frames: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := []Frame{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode frames: %w", err)
	}
	return results, nil
}

func (m *mongoRepository) FindFrame(ctx context.Context, id primitive.ObjectID) (*Frame, error) {
	var frame Frame
	if err := m.frames.FindOne(ctx, bson.M{"_id": id}).Decode(&frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

func (m *mongoRepository) InsertFrame(ctx context.Context, frame *Frame) error {
	now := time.Now()
	if frame.ID.IsZero() {
		frame.ID = primitive.NewObjectID()
	}
	frame.CreatedAt = now
	frame.UpdatedAt = now

	if _, err := m.frames.InsertOne(ctx, frame); err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}
	return nil
}

func (m *mongoRepository) UpdateFrame(ctx context.Context, id primitive.ObjectID, fields bson.M) (bool, error) {
	return updateByID(ctx, m.frames, id, fields, "frame")
}

func (m *mongoRepository) DeleteFrame(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := m.frames.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete frame: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (m *mongoRepository) DistinctFrameOptions(ctx context.Context) (*FrameOptions, error) {
	sizes, err := m.frames.Distinct(ctx, "sizes", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct frame sizes: %w", err)
	}
	colors, err := m.frames.Distinct(ctx, "colors", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct frame colors: %w", err)
	}
	return &FrameOptions{Sizes: toStrings(sizes), Colors: toStrings(colors)}, nil
}

func updateByID(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, fields bson.M, label string) (bool, error) {
	fields["updated_at"] = time.Now()

	result, err := collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return false, fmt.Errorf("update %s: %w", label, err)
	}
	return result.MatchedCount > 0, nil
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if s, ok := value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
