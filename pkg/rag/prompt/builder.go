package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/vectorstore"
)

const SystemPrompt = "You are an expert automotive service assistant. Provide concise, step-by-step troubleshooting " +
	"procedures, tools, and safety notes. Cite sources inline using [source:FILENAME p.PAGE]. " +
	"If information is insufficient, say what additional info is needed."

// VehicleContext describes the vehicle a question is about. Engine and
// Transmission are filled from the vehicle dataset when it knows the model.
type VehicleContext struct {
	Make         string
	Model        string
	Year         *int
	Engine       string
	Transmission string
}

// Builder turns a question and its retrieved excerpts into chat messages.
type Builder struct {
	question string
	vehicle  *VehicleContext
	excerpts []vectorstore.ScoredChunk
}

func NewBuilder(question string, vehicle *VehicleContext, excerpts []vectorstore.ScoredChunk) *Builder {
	return &Builder{question: question, vehicle: vehicle, excerpts: excerpts}
}

func (b *Builder) Messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: b.UserPrompt()},
	}
}

func (b *Builder) UserPrompt() string {
	var prompt strings.Builder

	prompt.WriteString(VehicleLine(b.vehicle))
	prompt.WriteString("Question: ")
	prompt.WriteString(b.question)
	prompt.WriteString("\n\nRelevant service manual excerpts:\n")
	prompt.WriteString(ContextBlock(b.excerpts))

	return prompt.String()
}

// ContextBlock renders each excerpt as "[source:F p.P] text", separated by blank lines.
func ContextBlock(excerpts []vectorstore.ScoredChunk) string {
	parts := make([]string, len(excerpts))
	for i, ex := range excerpts {
		parts[i] = fmt.Sprintf("[source:%s p.%s] %s", ex.Source, pageLabel(ex.Page), ex.Text)
	}
	return strings.Join(parts, "\n\n")
}

// VehicleLine is empty when v is nil and ends with a newline otherwise.
func VehicleLine(v *VehicleContext) string {
	if v == nil {
		return ""
	}
	year := "?"
	if v.Year != nil {
		year = strconv.Itoa(*v.Year)
	}

	line := fmt.Sprintf("Vehicle: %s %s %s", year, v.Make, v.Model)
	if v.Engine != "" {
		line += ", engine: " + v.Engine
	}
	if v.Transmission != "" {
		line += ", transmission: " + v.Transmission
	}
	return line + "\n"
}

func pageLabel(page *int) string {
	if page == nil {
		return "?"
	}
	return strconv.Itoa(*page)
}
