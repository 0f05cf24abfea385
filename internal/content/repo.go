package content

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists the content collections. Banner, home, about and
// settings are singleton documents maintained through upserts.
type Repository interface {
	ListReviews(ctx context.Context, productID *primitive.ObjectID) ([]Review, error)
	InsertReview(ctx context.Context, review *Review) error
	DeleteReview(ctx context.Context, id primitive.ObjectID) (bool, error)

	GetBanner(ctx context.Context) (*Banner, error)
	UpsertBanner(ctx context.Context, banner *Banner) error

	ListStories(ctx context.Context) ([]Story, error)
	InsertStory(ctx context.Context, story *Story) error
	DeleteStory(ctx context.Context, id primitive.ObjectID) (bool, error)

	GetHome(ctx context.Context) (*HomeContent, error)
	UpsertHome(ctx context.Context, home *HomeContent) error

	GetAbout(ctx context.Context) (*AboutContent, error)
	UpsertAbout(ctx context.Context, about *AboutContent) error

	GetSettings(ctx context.Context) (*Settings, error)
	UpsertSettings(ctx context.Context, settings *Settings) error
}

type mongoRepository struct {
	reviews  *mongo.Collection
	banners  *mongo.Collection
	stories  *mongo.Collection
	home     *mongo.Collection
	about    *mongo.Collection
	settings *mongo.Collection
}

// Collections groups the content collections handed to the repository.
type Collections struct {
	Reviews  *mongo.Collection
	Banners  *mongo.Collection
	Stories  *mongo.Collection
	Home     *mongo.Collection
	About    *mongo.Collection
	Settings *mongo.Collection
}

func NewRepository(c Collections) Repository {
	return &mongoRepository{
		reviews:  c.Reviews,
		banners:  c.Banners,
		stories:  c.Stories,
		home:     c.Home,
		about:    c.About,
		settings: c.Settings,
	}
}

func (m *mongoRepository) ListReviews(ctx context.Context, productID *primitive.ObjectID) ([]Review, error) {
	filter := bson.M{}
	if productID != nil {
		filter["product_id"] = *productID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := []Review{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return results, nil
}

func (m *mongoRepository) InsertReview(ctx context.Context, review *Review) error {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt = time.Now()

	if _, err := m.reviews.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteReview(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := m.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (m *mongoRepository) GetBanner(ctx context.Context) (*Banner, error) {
	var banner Banner
	if err := m.banners.FindOne(ctx, bson.M{}).Decode(&banner); err != nil {
		return nil, err
	}
	return &banner, nil
}

func (m *mongoRepository) UpsertBanner(ctx context.Context, banner *Banner) error {
	banner.UpdatedAt = time.Now()
	return upsertSingleton(ctx, m.banners, banner, "banner")
}

func (m *mongoRepository) ListStories(ctx context.Context) ([]Story, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.stories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stories: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := []Story{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode stories: %w", err)
	}
	return results, nil
}

func (m *mongoRepository) InsertStory(ctx context.Context, story *Story) error {
	if story.ID.IsZero() {
		story.ID = primitive.NewObjectID()
	}
	story.CreatedAt = time.Now()

	if _, err := m.stories.InsertOne(ctx, story); err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteStory(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := m.stories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete story: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (m *mongoRepository) GetHome(ctx context.Context) (*HomeContent, error) {
	var home HomeContent
	if err := m.home.FindOne(ctx, bson.M{}).Decode(&home); err != nil {
		return nil, err
	}
	return &home, nil
}

func (m *mongoRepository) UpsertHome(ctx context.Context, home *HomeContent) error {
	home.UpdatedAt = time.Now()
	return upsertSingleton(ctx, m.home, home, "home content")
}

func (m *mongoRepository) GetAbout(ctx context.Context) (*AboutContent, error) {
	var about AboutContent
	if err := m.about.FindOne(ctx, bson.M{}).Decode(&about); err != nil {
		return nil, err
	}
	return &about, nil
}

func (m *mongoRepository) UpsertAbout(ctx context.Context, about *AboutContent) error {
	about.UpdatedAt = time.Now()
	return upsertSingleton(ctx, m.about, about, "about content")
}

func (m *mongoRepository) GetSettings(ctx context.Context) (*Settings, error) {
	var settings Settings
	if err := m.settings.FindOne(ctx, bson.M{}).Decode(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (m *mongoRepository) UpsertSettings(ctx context.Context, settings *Settings) error {
	settings.UpdatedAt = time.Now()
	return upsertSingleton(ctx, m.settings, settings, "settings")
}

// upsertSingleton replaces the collection's only document, creating it on
// first write. The zero _id is stripped by the omitempty bson tag.
func upsertSingleton(ctx context.Context, collection *mongo.Collection, doc any, label string) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.M{}, doc, opts); err != nil {
		return fmt.Errorf("upsert %s: %w", label, err)
	}
	return nil
}
