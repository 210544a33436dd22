package entity

import "time"

type Record struct {
	Id        uint
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
