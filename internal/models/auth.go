package models

// LoginRequest is the admin dashboard login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminInfo describes the authenticated admin returned to the dashboard.
type AdminInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is the successful login payload.
type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    AdminInfo `json:"user"`
}
