package dto

import "time"

type CreateRecordRequest struct {
	Title *string `json:"title" validate:"required"`
	Body  *string `json:"body" validate:"required"`
}

// UpdateRecordRequest is a partial update: nil fields are left unchanged.
type UpdateRecordRequest struct {
	Id    uint    `json:"-"`
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

type ListRecordRequest struct {
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
	Query  string `query:"q"`
}

type RecordResponse struct {
	Id        uint      `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeleteRecordResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
