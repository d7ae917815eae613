package dtos

// Request bodies accepted by the draft editing API.

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
	CategoryID  *string `json:"categoryId"`
}

type UpdateVariantRequest struct {
	ColorID *string `json:"colorId"`
	Status  *string `json:"status"`
}

type UpdateSizeRequest struct {
	Field string `json:"field" binding:"required,oneof=sizeId price quantity"`
	Value string `json:"value"`
}

type AddImageURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type ReorderImagesRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

type UpdateAltTextRequest struct {
	AltText string `json:"altText"`
}
