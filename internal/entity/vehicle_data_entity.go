package entity

type DiagnosticCode struct {
	Code                 string
	Name                 string
	Description          string
	Symptoms             []string
	PossibleCauses       []string
	TroubleshootingSteps []string
}

type VehicleInfo struct {
	Make         string
	Model        string
	Year         int
	Engine       *string
	Transmission *string
	Specs        map[string]string
}
