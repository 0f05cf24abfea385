package orders

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the order lifecycle state. The payment path only ever moves
// unpaid -> paid; cancellation is an explicit admin action.
type Status string

const (
	StatusUnpaid    Status = "unpaid"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status string from a request payload.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusUnpaid:
		return StatusUnpaid, true
	case StatusPaid:
		return StatusPaid, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// Customer holds the contact and shipping fields captured at checkout.
type Customer struct {
	FirstName    string `bson:"first_name" json:"first_name"`
	LastName     string `bson:"last_name" json:"last_name"`
	Email        string `bson:"email" json:"email"`
	Phone        string `bson:"phone" json:"phone"`
	Address      string `bson:"address" json:"address"`
	City         string `bson:"city" json:"city"`
	PostalCode   string `bson:"postal_code" json:"postal_code"`
	Notes        string `bson:"notes,omitempty" json:"notes,omitempty"`
	DiscountCode string `bson:"discount_code,omitempty" json:"discount_code,omitempty"`
}

// Item is a purchased line, snapshotted from the cart at checkout and
// decoupled from any live cart afterwards.
type Item struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	Image     string             `bson:"image" json:"image"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color" json:"color"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     int64              `bson:"price" json:"price"`
	Total     int64              `bson:"total" json:"total"`
}

// Order is the checkout record. Subtotal always equals the sum of item
// totals; it is recomputed whenever items are replaced.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"order_id"`
	Customer      Customer           `bson:"customer" json:"customer"`
	Items         []Item             `bson:"items" json:"items"`
	Subtotal      int64              `bson:"subtotal" json:"subtotal"`
	Status        Status             `bson:"status" json:"status"`
	TransactionID *string            `bson:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

func subtotalOf(items []Item) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Price * int64(item.Quantity)
	}
	return sum
}
