package dto

import "time"

// CreateTableRequest registers a dining table.
type CreateTableRequest struct {
	TableNo string `json:"table_no" validate:"notblank,max=20"`
}

// UpdateTableRequest patches a dining table.
type UpdateTableRequest struct {
	TableNo *string `json:"table_no" validate:"omitnil,notblank,max=20"`
	Status  *string `json:"status" validate:"omitnil,oneof=available unavailable"`
}

// CreateReservationRequest books a table.
type CreateReservationRequest struct {
	Name    string    `json:"name" validate:"notblank,max=100"`
	Phone   string    `json:"phone" validate:"notblank,max=30"`
	Date    time.Time `json:"date" validate:"required"`
	People  int       `json:"people" validate:"gte=1"`
	TableID int64     `json:"table_id" validate:"gt=0"`
}
