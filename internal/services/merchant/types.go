package merchant

// RegisterInput registers a merchant payable under Code.
type RegisterInput struct {
	UserID       uint   `json:"user_id" validate:"required"`
	Code         string `json:"code" validate:"required"`
	BusinessName string `json:"business_name" validate:"required,max=120"`
	BusinessType string `json:"business_type" validate:"max=60"`
}
