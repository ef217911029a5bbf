package dto

// PaymentMethodRequest carries the text fields of a multipart payment method form.
type PaymentMethodRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// UpdatePaymentMethodRequest patches a payment method; the image is optional.
type UpdatePaymentMethodRequest struct {
	Name *string `json:"name" validate:"omitnil,notblank,max=100"`
}

// CreateExpenseRequest records an expense for the calling user.
type CreateExpenseRequest struct {
	Title    string `json:"title" validate:"notblank,max=150"`
	Amount   int64  `json:"amount" validate:"gt=0,lte=100000000000000"`
	Category string `json:"category" validate:"notblank,max=100"`
	Note     string `json:"note" validate:"max=1000"`
}

// UpdateExpenseRequest patches an expense.
type UpdateExpenseRequest struct {
	Title    *string `json:"title" validate:"omitnil,notblank,max=150"`
	Amount   *int64  `json:"amount" validate:"omitnil,gt=0,lte=100000000000000"`
	Category *string `json:"category" validate:"omitnil,notblank,max=100"`
	Note     *string `json:"note" validate:"omitnil,max=1000"`
}

// MonthlyExpense is the caller's spend for the current calendar month.
type MonthlyExpense struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
}
