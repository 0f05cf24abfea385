package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Service exposes the editorial content to the storefront and admin panel.
type Service interface {
	ListReviews(ctx context.Context, productID string) ([]Review, error)
	CreateReview(ctx context.Context, input ReviewInput) (*Review, error)
	DeleteReview(ctx context.Context, id string) error

	GetBanner(ctx context.Context) (*Banner, error)
	SaveBanner(ctx context.Context, banner Banner) (*Banner, error)

	ListStories(ctx context.Context) ([]Story, error)
	CreateStory(ctx context.Context, input StoryInput) (*Story, error)
	DeleteStory(ctx context.Context, id string) error

	GetHome(ctx context.Context) (*HomeContent, error)
	SaveHome(ctx context.Context, home HomeContent) (*HomeContent, error)

	GetAbout(ctx context.Context) (*AboutContent, error)
	SaveAbout(ctx context.Context, about AboutContent) (*AboutContent, error)

	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings Settings) (*Settings, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("content repository required")
	}
	return &service{repo: repo}, nil
}

// ReviewInput is the storefront payload for a new review.
type ReviewInput struct {
	ProductID string
	Name      string
	Rating    int
	Comment   string
}

// StoryInput is the admin payload for a new story card.
type StoryInput struct {
	Title string
	Image string
	Body  string
}

func (s *service) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	var filter *primitive.ObjectID
	if strings.TrimSpace(productID) != "" {
		oid, err := primitive.ObjectIDFromHex(productID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		filter = &oid
	}

	reviews, err := s.repo.ListReviews(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list reviews")
	}
	return reviews, nil
}

func (s *service) CreateReview(ctx context.Context, input ReviewInput) (*Review, error) {
	productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(input.ProductID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer name is required")
	}

	review := &Review{
		ProductID: productID,
		Name:      input.Name,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.repo.InsertReview(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create review")
	}
	return review, nil
}

func (s *service) DeleteReview(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid review id")
	}

	deleted, err := s.repo.DeleteReview(ctx, oid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "delete review")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func (s *service) GetBanner(ctx context.Context) (*Banner, error) {
	banner, err := s.repo.GetBanner(ctx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "banner not set")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load banner")
	}
	return banner, nil
}

func (s *service) SaveBanner(ctx context.Context, banner Banner) (*Banner, error) {
	if strings.TrimSpace(banner.Image) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner image is required")
	}

	banner.ID = primitive.NilObjectID
	if err := s.repo.UpsertBanner(ctx, &banner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "save banner")
	}
	return &banner, nil
}

func (s *service) ListStories(ctx context.Context) ([]Story, error) {
	stories, err := s.repo.ListStories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list stories")
	}
	return stories, nil
}

func (s *service) CreateStory(ctx context.Context, input StoryInput) (*Story, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "story title is required")
	}

	story := &Story{Title: input.Title, Image: input.Image, Body: input.Body}
	if err := s.repo.InsertStory(ctx, story); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create story")
	}
	return story, nil
}

func (s *service) DeleteStory(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid story id")
	}

	deleted, err := s.repo.DeleteStory(ctx, oid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "delete story")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "story not found")
	}
	return nil
}

func (s *service) GetHome(ctx context.Context) (*HomeContent, error) {
	home, err := s.repo.GetHome(ctx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &HomeContent{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load home content")
	}
	return home, nil
}

func (s *service) SaveHome(ctx context.Context, home HomeContent) (*HomeContent, error) {
	home.ID = primitive.NilObjectID
	if err := s.repo.UpsertHome(ctx, &home); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "save home content")
	}
	return &home, nil
}

func (s *service) GetAbout(ctx context.Context) (*AboutContent, error) {
	about, err := s.repo.GetAbout(ctx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &AboutContent{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load about content")
	}
	return about, nil
}

func (s *service) SaveAbout(ctx context.Context, about AboutContent) (*AboutContent, error) {
	about.ID = primitive.NilObjectID
	if err := s.repo.UpsertAbout(ctx, &about); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "save about content")
	}
	return &about, nil
}

func (s *service) GetSettings(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return DefaultSettings(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load settings")
	}
	return settings, nil
}

func (s *service) SaveSettings(ctx context.Context, settings Settings) (*Settings, error) {
	settings.ID = primitive.NilObjectID
	if err := s.repo.UpsertSettings(ctx, &settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "save settings")
	}
	return &settings, nil
}
