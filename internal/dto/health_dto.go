package dto

type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type IngestStatsResponse struct {
	Ingestions int64 `json:"ingestions"`
	Chunks     int64 `json:"chunks"`
}
