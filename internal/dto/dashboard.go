package dto

// GradeUserCount is one row of the users-per-grade breakdown.
type GradeUserCount struct {
	Grade string `json:"grade" db:"grade"`
	Total int    `json:"total" db:"total"`
}

// DashboardResponse is the admin reporting payload.
type DashboardResponse struct {
	TotalUsers          int              `json:"total_users"`
	TotalGrades         int              `json:"total_grades"`
	TotalCourses        int              `json:"total_courses"`
	TotalOrders         int              `json:"total_orders"`
	ApprovedOrders      int              `json:"approved_orders"`
	PendingOrders       int              `json:"pending_orders"`
	CanceledOrders      int              `json:"canceled_orders"`
	UsersByGrade        []GradeUserCount `json:"users_by_grade"`
	TotalPayments       float64          `json:"total_payments"`
	CurrentMonth        string           `json:"current_month"`
	CurrentMonthPayment float64          `json:"current_month_payment"`
	OrderSellTotal      float64          `json:"order_sell_total"`
}
