package dtos

type RegisterRequest struct {
	FullName    string `json:"fullName" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,e164"`
	Role        string `json:"role" binding:"omitempty,role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
