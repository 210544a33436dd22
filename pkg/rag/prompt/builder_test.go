package prompt

import (
	"testing"

	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestVehicleLine(t *testing.T) {
	tests := []struct {
		name    string
		vehicle *VehicleContext
		want    string
	}{
		{name: "no vehicle", vehicle: nil, want: ""},
		{name: "unknown year", vehicle: &VehicleContext{Make: "Toyota", Model: "Camry"}, want: "Vehicle: ? Toyota Camry\n"},
		{
			name:    "with specs",
			vehicle: &VehicleContext{Make: "Toyota", Model: "Camry", Year: intPtr(2018), Engine: "2.5L I4", Transmission: "8-speed automatic"},
			want:    "Vehicle: 2018 Toyota Camry, engine: 2.5L I4, transmission: 8-speed automatic\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VehicleLine(tt.vehicle))
		})
	}
}

func TestBuilder_Messages(t *testing.T) {
	excerpts := []vectorstore.ScoredChunk{
		{Chunk: vectorstore.Chunk{Text: "Replace plugs every 60k miles.", Source: "camry.pdf", Page: intPtr(12)}},
		{Chunk: vectorstore.Chunk{Text: "", Source: "scan.pdf"}},
	}
	msgs := NewBuilder("How do I fix P0300?", &VehicleContext{Make: "Toyota", Model: "Camry", Year: intPtr(2018)}, excerpts).Messages()

	require.Len(t, msgs, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt}, msgs[0])
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Equal(t,
		"Vehicle: 2018 Toyota Camry\n"+
			"Question: How do I fix P0300?\n\n"+
			"Relevant service manual excerpts:\n"+
			"[source:camry.pdf p.12] Replace plugs every 60k miles.\n\n"+
			"[source:scan.pdf p.?] ",
		msgs[1].Content)
}
