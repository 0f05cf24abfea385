package content

import (
	"context"
	"testing"

	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type stubContentRepo struct {
	reviews  []Review
	banner   *Banner
	stories  []Story
	home     *HomeContent
	about    *AboutContent
	settings *Settings
}

func (s *stubContentRepo) ListReviews(ctx context.Context, productID *primitive.ObjectID) ([]Review, error) {
	if productID == nil {
		return s.reviews, nil
	}
	filtered := []Review{}
	for _, review := range s.reviews {
		if review.ProductID == *productID {
			filtered = append(filtered, review)
		}
	}
	return filtered, nil
}

func (s *stubContentRepo) InsertReview(ctx context.Context, review *Review) error {
	review.ID = primitive.NewObjectID()
	s.reviews = append(s.reviews, *review)
	return nil
}

func (s *stubContentRepo) DeleteReview(ctx context.Context, id primitive.ObjectID) (bool, error) {
	for i, review := range s.reviews {
		if review.ID == id {
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubContentRepo) GetBanner(ctx context.Context) (*Banner, error) {
	if s.banner == nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.banner, nil
}

func (s *stubContentRepo) UpsertBanner(ctx context.Context, banner *Banner) error {
	s.banner = banner
	return nil
}

func (s *stubContentRepo) ListStories(ctx context.Context) ([]Story, error) {
	return s.stories, nil
}

func (s *stubContentRepo) InsertStory(ctx context.Context, story *Story) error {
	story.ID = primitive.NewObjectID()
	s.stories = append(s.stories, *story)
	return nil
}

func (s *stubContentRepo) DeleteStory(ctx context.Context, id primitive.ObjectID) (bool, error) {
	for i, story := range s.stories {
		if story.ID == id {
			s.stories = append(s.stories[:i], s.stories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubContentRepo) GetHome(ctx context.Context) (*HomeContent, error) {
	if s.home == nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.home, nil
}

func (s *stubContentRepo) UpsertHome(ctx context.Context, home *HomeContent) error {
	s.home = home
	return nil
}

func (s *stubContentRepo) GetAbout(ctx context.Context) (*AboutContent, error) {
	if s.about == nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.about, nil
}

func (s *stubContentRepo) UpsertAbout(ctx context.Context, about *AboutContent) error {
	s.about = about
	return nil
}

func (s *stubContentRepo) GetSettings(ctx context.Context) (*Settings, error) {
	if s.settings == nil {
		return nil, mongo.ErrNoDocuments
	}
	return s.settings, nil
}

func (s *stubContentRepo) UpsertSettings(ctx context.Context, settings *Settings) error {
	s.settings = settings
	return nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateReviewRejectsOutOfRangeRating(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubContentRepo{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), ReviewInput{
			ProductID: primitive.NewObjectID().Hex(),
			Name:      "Farhan",
			Rating:    rating,
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestListReviewsFiltersByProduct(t *testing.T) {
	t.Parallel()

	repo := &stubContentRepo{}
	svc := newTestService(t, repo)

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	for _, productID := range []primitive.ObjectID{first, first, second} {
		if _, err := svc.CreateReview(context.Background(), ReviewInput{
			ProductID: productID.Hex(),
			Name:      "Farhan",
			Rating:    5,
		}); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}

	filtered, err := svc.ListReviews(context.Background(), first.Hex())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 reviews for product, got %d", len(filtered))
	}

	all, err := svc.ListReviews(context.Background(), "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(all))
	}
}

func TestGetBannerUnsetIsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubContentRepo{})

	_, err := svc.GetBanner(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveBannerRequiresImage(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubContentRepo{})

	_, err := svc.SaveBanner(context.Background(), Banner{Title: "Sale"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveBannerReplacesSingleton(t *testing.T) {
	t.Parallel()

	repo := &stubContentRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.SaveBanner(context.Background(), Banner{Image: "first.jpg"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := svc.SaveBanner(context.Background(), Banner{Image: "second.jpg"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	banner, err := svc.GetBanner(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if banner.Image != "second.jpg" {
		t.Fatalf("expected replacement, got %q", banner.Image)
	}
}

func TestGetHomeDefaultsToEmptyContent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubContentRepo{})

	home, err := svc.GetHome(context.Background())
	if err != nil {
		t.Fatalf("get home: %v", err)
	}
	if home == nil || home.HeroTitle != "" {
		t.Fatalf("expected empty home content, got %+v", home)
	}
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubContentRepo{})

	settings, err := svc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.StoreName != "SpaceStar" {
		t.Fatalf("expected default store name, got %q", settings.StoreName)
	}
	if settings.ShippingFee != 100 {
		t.Fatalf("expected default shipping fee, got %d", settings.ShippingFee)
	}
}

func TestDeleteStoryMissingIsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubContentRepo{})

	err := svc.DeleteStory(context.Background(), primitive.NewObjectID().Hex())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
