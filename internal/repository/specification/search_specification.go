package specification

import "gorm.io/gorm"

// RecordSearchQuery filters records by title or body, case-insensitive (Postgres ILIKE).
type RecordSearchQuery struct {
	Query string
}

func (s RecordSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("title ILIKE ? OR body ILIKE ?", pattern, pattern)
}
