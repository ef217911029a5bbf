package dto

// CategoryRequest creates or renames a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// VariantRequest creates a product variant.
type VariantRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
	Price       int64  `json:"price" validate:"gte=0,lte=100000000000000"`
}

// UpdateVariantRequest patches a product variant.
type UpdateVariantRequest struct {
	Name        *string `json:"name" validate:"omitnil,notblank,max=100"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	Price       *int64  `json:"price" validate:"omitnil,gte=0,lte=100000000000000"`
}

// CreateProductRequest adds a menu item with optional inline variants.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"notblank,max=150"`
	Description string           `json:"description" validate:"max=1000"`
	Price       int64            `json:"price" validate:"gte=0,lte=100000000000000"`
	IsGram      bool             `json:"is_gram"`
	CategoryID  int64            `json:"category_id" validate:"gt=0"`
	Variants    []VariantRequest `json:"variants" validate:"omitempty,dive"`
}

// UpdateProductRequest patches a menu item.
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitnil,notblank,max=150"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Price       *int64  `json:"price" validate:"omitnil,gte=0,lte=100000000000000"`
	IsGram      *bool   `json:"is_gram"`
	CategoryID  *int64  `json:"category_id" validate:"omitnil,gt=0"`
}

// CreateBuffetRequest adds a buffet package.
type CreateBuffetRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
	Price       int64  `json:"price" validate:"gt=0,lte=100000000000000"`
}

// UpdateBuffetRequest patches a buffet package.
type UpdateBuffetRequest struct {
	Name        *string `json:"name" validate:"omitnil,notblank,max=100"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	Price       *int64  `json:"price" validate:"omitnil,gt=0,lte=100000000000000"`
}
