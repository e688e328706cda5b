package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Retryable indica que la operación completa se puede reintentar (fallos transitorios).
	Retryable bool `json:"retryable,omitempty"`
	Details   any  `json:"details,omitempty"`
}

// InsufficientStockDetails detalle de un rechazo por stock insuficiente.
type InsufficientStockDetails struct {
	ProductID string `json:"product_id"`
	Available string `json:"available"`
	Requested string `json:"requested"`
}
