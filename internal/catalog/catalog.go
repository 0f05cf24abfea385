package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a storefront item. Prices are whole taka.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"product_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       int64              `bson:"price" json:"price"`
	Images      []string           `bson:"images" json:"images"`
	Category    string             `bson:"category" json:"category"`
	Sizes       []string           `bson:"sizes" json:"sizes"`
	Colors      []string           `bson:"colors" json:"colors"`
	InStock     bool               `bson:"in_stock" json:"in_stock"`
	Featured    bool               `bson:"featured" json:"featured"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Frame is a picture frame offered alongside products. Frames share the
// size/color option model but carry a single image.
type Frame struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"frame_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       int64              `bson:"price" json:"price"`
	Image       string             `bson:"image" json:"image"`
	Sizes       []string           `bson:"sizes" json:"sizes"`
	Colors      []string           `bson:"colors" json:"colors"`
	InStock     bool               `bson:"in_stock" json:"in_stock"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// FrameOptions lists every size and color in use across frames, for the
// storefront's option pickers.
type FrameOptions struct {
	Sizes  []string `json:"sizes"`
	Colors []string `json:"colors"`
}
