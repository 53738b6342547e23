package httpmodel

// GenerateRequest represents a request to generate a try-on image.
//
// swagger:model
type GenerateRequest struct {
	// The email address of the authenticated user
	Email string `json:"email"`

	// The URL of the subject image
	SubjectURL string `json:"subject_url"`

	// The URL of the garment image
	GarmentURL string `json:"garment_url"`

	// The object store handle for the subject image, set only if the image was
	// uploaded through this service for the duration of the request
	SubjectPublicID string `json:"subject_public_id,omitempty"`

	// The object store handle for the garment image, set only if the image was
	// uploaded through this service for the duration of the request
	GarmentPublicID string `json:"garment_public_id,omitempty"`
}

// GenerateResponse represents a successful generation result.
//
// swagger:model
type GenerateResponse struct {
	Success bool `json:"success"`

	// The composited image as a base64 data URL
	Image string `json:"image"`

	// The number of generations left in the current quota window
	Remaining int `json:"remaining"`
}

// QuotaStatus represents the current quota standing for a user.
//
// swagger:model
type QuotaStatus struct {
	// Whether another generation would currently be allowed
	Allowed bool `json:"allowed"`

	// The number of generations left in the current quota window
	Remaining int `json:"remaining"`
}

// UploadResponse represents the result of staging an image in the object store.
//
// swagger:model
type UploadResponse struct {
	Success bool `json:"success"`

	// The URL of the uploaded image
	URL string `json:"url"`

	// The handle used to delete the image once the generation request completes
	PublicID string `json:"public_id"`
}
