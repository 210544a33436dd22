package dto

const (
	DefaultTopK = 4
	MaxTopK     = 10
)

type QueryVehicleContext struct {
	Make  *string `json:"make"`
	Model *string `json:"model"`
	Year  *int    `json:"year"`
}

type QueryRequest struct {
	Query   *string              `json:"query" validate:"required"`
	TopK    *int                 `json:"top_k" validate:"omitempty,min=1,max=10"`
	Vehicle *QueryVehicleContext `json:"vehicle"`
}

type SourceResponse struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Page   *int    `json:"page"`
	Score  float64 `json:"score"`
}

type QueryResponse struct {
	Answer           string           `json:"answer"`
	Sources          []SourceResponse `json:"sources"`
	SuggestedActions []string         `json:"suggested_actions,omitempty"`
}

// UploadedFile is one PDF taken from a multipart upload.
type UploadedFile struct {
	Name    string
	Content []byte
}

type UploadDocumentsResponse struct {
	IngestedCount int      `json:"ingested_count"`
	Files         []string `json:"files"`
}
