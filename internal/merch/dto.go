package merch

// CreateMerchRequest is the body of POST /api/merch.
type CreateMerchRequest struct {
	Name        string    `json:"merchName" validate:"required,max=255"`
	Description string    `json:"description" validate:"required,max=1000"`
	Type        MerchType `json:"merchType" validate:"required,oneof=CLOTHING ACCESSORY STICKER LANYARD OTHERS"`
	Price       float64   `json:"price" validate:"required,gt=0"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,max=1024"`
}

// UpdateMerchRequest is the body of PUT and PATCH. PUT requires every field;
// PATCH applies only the fields present.
type UpdateMerchRequest struct {
	Name        *string    `json:"merchName,omitempty" validate:"omitempty,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Type        *MerchType `json:"merchType,omitempty" validate:"omitempty,oneof=CLOTHING ACCESSORY STICKER LANYARD OTHERS"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	ImageURL    *string    `json:"imageUrl,omitempty" validate:"omitempty,max=1024"`
}

// MerchResponse is the wire form of a Merch.
type MerchResponse struct {
	ID          int64     `json:"merchId"`
	Name        string    `json:"merchName"`
	Description string    `json:"description"`
	Type        MerchType `json:"merchType"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

func toResponse(m Merch) MerchResponse {
	return MerchResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Type:        m.Type,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
	}
}
