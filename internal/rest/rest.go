package rest

// ResponseError is the plain error payload returned by handlers.
type ResponseError struct {
	Message string `json:"message"`
}

// CartItemInput mirrors domain.CartItem on the wire.
type CartItemInput struct {
	ProductID  uint64  `json:"product_id" validate:"required"`
	CategoryID uint64  `json:"category_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
}
