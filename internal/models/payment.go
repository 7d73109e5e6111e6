package models

import "time"

// PaymentMethod enumerates accepted tuition payment channels.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentBkash    PaymentMethod = "bKash"
	PaymentNagad    PaymentMethod = "Nagad"
	PaymentUpay     PaymentMethod = "Upay"
	PaymentRocket   PaymentMethod = "Rocket"
	PaymentCard     PaymentMethod = "Debit/Credit Card"
	PaymentTransfer PaymentMethod = "Bank Transfer"
)

// Payment is a tuition payment record kept by administrators.
type Payment struct {
	ID          string        `db:"id" json:"id"`
	Remark      string        `db:"remark" json:"remark"`
	TrxID       string        `db:"trx_id" json:"trx_id"`
	Method      PaymentMethod `db:"method" json:"method"`
	Amount      float64       `db:"amount" json:"amount"`
	PaymentDate time.Time     `db:"payment_date" json:"payment_date"`
	UserID      string        `db:"user_id" json:"user_id"`
	GradeID     string        `db:"grade_id" json:"grade_id"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`

	User  *User  `db:"-" json:"user,omitempty"`
	Grade *Grade `db:"-" json:"grade,omitempty"`
}

// PaymentRequest is the create payload.
type PaymentRequest struct {
	Remark      string        `json:"remark" validate:"required"`
	TrxID       string        `json:"trx_id" validate:"required"`
	Method      PaymentMethod `json:"method" validate:"required,oneof=Cash bKash Nagad Upay Rocket 'Debit/Credit Card' 'Bank Transfer'"`
	Amount      float64       `json:"amount" validate:"required,gt=0"`
	PaymentDate time.Time     `json:"payment_date" validate:"required"`
	UserID      string        `json:"user_id" validate:"required"`
	GradeID     string        `json:"grade_id" validate:"required"`
}

// UpdatePaymentRequest mutates an existing record; user and grade are fixed.
type UpdatePaymentRequest struct {
	Remark      string        `json:"remark" validate:"required"`
	TrxID       string        `json:"trx_id" validate:"required"`
	Method      PaymentMethod `json:"method" validate:"required,oneof=Cash bKash Nagad Upay Rocket 'Debit/Credit Card' 'Bank Transfer'"`
	Amount      float64       `json:"amount" validate:"required,gt=0"`
	PaymentDate time.Time     `json:"payment_date" validate:"required"`
}

// TrxGenRequest asks for the next transaction id of a grade.
type TrxGenRequest struct {
	GradeID string `json:"grade_id" validate:"required"`
}

// TrxGenResponse carries the generated id.
type TrxGenResponse struct {
	TrxID string `json:"trx_id"`
}
