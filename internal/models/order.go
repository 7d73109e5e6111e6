package models

import "time"

// OrderMethod enumerates the mobile-banking rails accepted for orders.
type OrderMethod string

const (
	OrderMethodBkash  OrderMethod = "bKash"
	OrderMethodRocket OrderMethod = "Rocket"
)

// OrderStatus is the approval workflow state.
type OrderStatus string

const (
	OrderPending  OrderStatus = "Pending"
	OrderApproved OrderStatus = "Approved"
	OrderCanceled OrderStatus = "Canceled"
)

// Order is a course purchase placed by a student and reviewed by an admin.
type Order struct {
	ID            string      `db:"id" json:"id"`
	CourseID      string      `db:"course_id" json:"course_id"`
	Method        OrderMethod `db:"method" json:"method"`
	AccountNumber string      `db:"account_number" json:"account_number"`
	TrxID         string      `db:"trx_id" json:"trx_id"`
	Status        OrderStatus `db:"status" json:"status"`
	BuyerID       string      `db:"buyer_id" json:"buyer_id"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`

	Course *Course `db:"-" json:"course,omitempty"`
	Buyer  *User   `db:"-" json:"buyer,omitempty"`
}

// CreateOrderRequest is the order placement payload; the buyer is the caller.
type CreateOrderRequest struct {
	CourseID      string      `json:"course_id" validate:"required"`
	Method        OrderMethod `json:"method" validate:"required,oneof=bKash Rocket"`
	AccountNumber string      `json:"account_number" validate:"required"`
	TrxID         string      `json:"trx_id" validate:"required"`
}

// UpdateOrderStatusRequest approves or cancels a pending order.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=Pending Approved Canceled"`
}
