package models

// Admin is a member of staff managed from the personnel screens. Drivers are
// admins with the "delivery" role.
type Admin struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// AdminInput is the body of POST/PATCH /admin. Nil fields are left untouched on update.
type AdminInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone    *string `json:"phone,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// Payment is a payment registered against an order.
type Payment struct {
	ID      uint    `json:"id"`
	OrderID uint    `json:"orderId" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method" binding:"required"`
	Status  string  `json:"status,omitempty"`
}

// CashBox is a register tracked for its connection status and balance.
type CashBox struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	IsOnline bool    `json:"isOnline"`
	Balance  float64 `json:"balance"`
	Status   string  `json:"status"`
}
