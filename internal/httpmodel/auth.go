package httpmodel

// LoginRequest represents a request to begin the login flow by sending a one-time code.
//
// swagger:model
type LoginRequest struct {
	// The email address to send the verification code to
	//
	// required: true
	Email string `json:"email" validate:"required,email"`

	// The user's display name
	//
	// required: true
	Name string `json:"name" validate:"required"`
}

// VerifyRequest represents a request to verify a one-time code.
//
// swagger:model
type VerifyRequest struct {
	// The email address the code was sent to
	//
	// required: true
	Email string `json:"email" validate:"required,email"`

	// The one-time code from the verification email
	//
	// required: true
	Code string `json:"code" validate:"required"`
}

// MessageResponse represents a response that only carries a human-readable message.
//
// swagger:model
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
