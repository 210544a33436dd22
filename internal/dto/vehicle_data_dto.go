package dto

type DiagnosticCodeResponse struct {
	Code                 string   `json:"code"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Symptoms             []string `json:"symptoms"`
	PossibleCauses       []string `json:"possible_causes"`
	TroubleshootingSteps []string `json:"troubleshooting_steps"`
}

type VehicleInfoResponse struct {
	Make         string            `json:"make"`
	Model        string            `json:"model"`
	Year         int               `json:"year"`
	Engine       *string           `json:"engine"`
	Transmission *string           `json:"transmission"`
	Specs        map[string]string `json:"specs"`
}
