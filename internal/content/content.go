package content

import (
	"time"

	"github.com/spacestar-shop/backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is customer feedback attached to a product.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"review_id"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Banner is the storefront hero banner. The collection holds a single
// document that updates replace in place.
type Banner struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Image     string             `bson:"image" json:"image"`
	Title     string             `bson:"title" json:"title"`
	Subtitle  string             `bson:"subtitle" json:"subtitle"`
	Link      string             `bson:"link" json:"link"`
	Active    bool               `bson:"active" json:"active"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Story is a homepage story card, shown newest first.
type Story struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"story_id"`
	Title     string             `bson:"title" json:"title"`
	Image     string             `bson:"image" json:"image"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// HomeContent holds the editable homepage copy. Singleton document.
type HomeContent struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	HeroTitle    string             `bson:"hero_title" json:"hero_title"`
	HeroSubtitle string             `bson:"hero_subtitle" json:"hero_subtitle"`
	PromoText    string             `bson:"promo_text" json:"promo_text"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// AboutContent holds the about page copy. Singleton document.
type AboutContent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Image     string             `bson:"image" json:"image"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Settings is the site-wide configuration editable from the admin panel.
// Singleton document; reads fall back to defaults when none exists yet.
type Settings struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StoreName        string             `bson:"store_name" json:"store_name"`
	ContactEmail     string             `bson:"contact_email" json:"contact_email"`
	ContactPhone     string             `bson:"contact_phone" json:"contact_phone"`
	ShippingFee      int64              `bson:"shipping_fee" json:"shipping_fee"`
	FreeShippingOver int64              `bson:"free_shipping_over" json:"free_shipping_over"`
	Social           types.SocialLinks  `bson:"social" json:"social"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// DefaultSettings are served until an admin saves real values.
func DefaultSettings() *Settings {
	return &Settings{
		StoreName:   "SpaceStar",
		ShippingFee: 100,
	}
}
