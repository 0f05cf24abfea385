package cart

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// shippingOffset is added to the time a line is placed in the cart to derive
// the earliest shipping date shown to the shopper.
const shippingOffset = 72 * time.Hour

// Cart is a session-scoped collection of prospective purchase lines, keyed by
// an opaque cart id handed to the storefront.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CartID    string             `bson:"cart_id" json:"cart_id"`
	Items     []LineItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// LineItem is one purchasable unit within a cart. At most one line exists per
// (product, size, color) triple; adding the same triple again increments the
// quantity of the existing line.
type LineItem struct {
	ID              primitive.ObjectID `bson:"_id" json:"item_id"`
	ProductID       primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name            string             `bson:"name" json:"name"`
	Image           string             `bson:"image" json:"image"`
	Size            string             `bson:"size" json:"size"`
	AvailableSizes  []string           `bson:"available_sizes" json:"available_sizes"`
	Color           string             `bson:"color" json:"color"`
	AvailableColors []string           `bson:"available_colors" json:"available_colors"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	Price           int64              `bson:"price" json:"price"`
	Total           int64              `bson:"total" json:"total"`
	ShippingDate    time.Time          `bson:"shipping_date" json:"shipping_date"`
	AddedAt         time.Time          `bson:"added_at" json:"added_at"`
}

// Subtotal sums the line totals.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, item := range c.Items {
		sum += item.Total
	}
	return sum
}

func (c *Cart) findItem(itemID primitive.ObjectID) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) findByProduct(productID primitive.ObjectID) *LineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

func shippingDateFrom(added time.Time) time.Time {
	return added.Add(shippingOffset)
}
