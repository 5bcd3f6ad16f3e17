// Package acl is an Anti-Corruption Layer translating data from systems
// outside the ingestion engine's control into commands.SubmitDocumentCommand,
// so the ingestion pipeline never has to learn an external system's shape.
package acl

import (
	"context"
	"fmt"
	"time"

	"github.com/kgraph/engine/application/commands"
)

// ExternalSourceAdapter translates one external system's payload shape into
// a document submission, and back into that system's own response shape.
type ExternalSourceAdapter interface {
	TranslateToSubmission(externalData interface{}) (commands.SubmitDocumentCommand, error)
	ValidateExternalData(data interface{}) error
}

// WebContentAdapter adapts fetched web pages into document submissions.
type WebContentAdapter struct {
	ontology string
}

func NewWebContentAdapter(ontology string) *WebContentAdapter {
	return &WebContentAdapter{ontology: ontology}
}

// WebContent represents a fetched web page awaiting ingestion.
type WebContent struct {
	URL         string                 `json:"url"`
	Title       string                 `json:"title"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata"`
	ExtractedAt time.Time              `json:"extracted_at"`
}

func (w *WebContentAdapter) TranslateToSubmission(externalData interface{}) (commands.SubmitDocumentCommand, error) {
	webContent, ok := externalData.(*WebContent)
	if !ok {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("invalid data type: expected *WebContent")
	}
	if err := w.ValidateExternalData(webContent); err != nil {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("validation failed: %w", err)
	}

	return commands.SubmitDocumentCommand{
		Ontology:   w.ontology,
		Filename:   webContent.Title,
		SourceType: "web",
		SourcePath: webContent.URL,
		Content:    []byte(webContent.Content),
	}, nil
}

func (w *WebContentAdapter) ValidateExternalData(data interface{}) error {
	webContent, ok := data.(*WebContent)
	if !ok {
		return fmt.Errorf("invalid data type: expected *WebContent")
	}
	if webContent.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(webContent.Title) > 500 {
		return fmt.Errorf("title too long (max 500 characters)")
	}
	if len(webContent.Content) == 0 {
		return fmt.Errorf("content must not be empty")
	}
	if len(webContent.Content) > commands.MaxDocumentBytes {
		return fmt.Errorf("content exceeds maximum document size")
	}
	return nil
}

// AIServiceAdapter adapts a generative AI response into a document
// submission, for ingesting model output as a source in its own right.
type AIServiceAdapter struct {
	ontology  string
	maxTokens int
}

func NewAIServiceAdapter(ontology string, maxTokens int) *AIServiceAdapter {
	return &AIServiceAdapter{ontology: ontology, maxTokens: maxTokens}
}

// AIResponse represents an external AI service completion.
type AIResponse struct {
	Prompt      string    `json:"prompt"`
	Response    string    `json:"response"`
	Model       string    `json:"model"`
	Tokens      int       `json:"tokens"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (a *AIServiceAdapter) TranslateToSubmission(externalData interface{}) (commands.SubmitDocumentCommand, error) {
	resp, ok := externalData.(*AIResponse)
	if !ok {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("invalid data type: expected *AIResponse")
	}
	if err := a.ValidateExternalData(resp); err != nil {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("validation failed: %w", err)
	}

	title := resp.Prompt
	if len(title) > 100 {
		title = title[:97] + "..."
	}

	return commands.SubmitDocumentCommand{
		Ontology:   a.ontology,
		Filename:   title,
		SourceType: "ai_response",
		SourcePath: resp.Model,
		Content:    []byte(resp.Response),
	}, nil
}

func (a *AIServiceAdapter) ValidateExternalData(data interface{}) error {
	resp, ok := data.(*AIResponse)
	if !ok {
		return fmt.Errorf("invalid data type: expected *AIResponse")
	}
	if resp.Response == "" {
		return fmt.Errorf("response is required")
	}
	if resp.Tokens > a.maxTokens {
		return fmt.Errorf("response exceeds maximum tokens (%d > %d)", resp.Tokens, a.maxTokens)
	}
	return nil
}

// DatabaseImportAdapter adapts records pulled from an external database into
// document submissions, mapping configured field names to title/content.
type DatabaseImportAdapter struct {
	ontology      string
	fieldMappings map[string]string
}

func NewDatabaseImportAdapter(ontology string, fieldMappings map[string]string) *DatabaseImportAdapter {
	return &DatabaseImportAdapter{ontology: ontology, fieldMappings: fieldMappings}
}

// ExternalRecord represents a record pulled from an external database.
type ExternalRecord struct {
	ID         string                 `json:"id"`
	Fields     map[string]interface{} `json:"fields"`
	ImportedAt time.Time              `json:"imported_at"`
	Source     string                 `json:"source"`
}

func (d *DatabaseImportAdapter) TranslateToSubmission(externalData interface{}) (commands.SubmitDocumentCommand, error) {
	record, ok := externalData.(*ExternalRecord)
	if !ok {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("invalid data type: expected *ExternalRecord")
	}
	if err := d.ValidateExternalData(record); err != nil {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("validation failed: %w", err)
	}

	title := d.mapField(record.Fields, "title")
	if title == "" {
		title = fmt.Sprintf("imported-record-%s", record.ID)
	}
	body := d.mapField(record.Fields, "content")

	return commands.SubmitDocumentCommand{
		Ontology:   d.ontology,
		Filename:   title,
		SourceType: "db_import",
		SourcePath: record.Source,
		Content:    []byte(body),
	}, nil
}

func (d *DatabaseImportAdapter) ValidateExternalData(data interface{}) error {
	record, ok := data.(*ExternalRecord)
	if !ok {
		return fmt.Errorf("invalid data type: expected *ExternalRecord")
	}
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}
	if len(record.Fields) == 0 {
		return fmt.Errorf("record must have fields")
	}
	return nil
}

func (d *DatabaseImportAdapter) mapField(fields map[string]interface{}, internalName string) string {
	if externalName, ok := d.fieldMappings[internalName]; ok {
		if value, ok := fields[externalName]; ok {
			return fmt.Sprintf("%v", value)
		}
	}
	if value, ok := fields[internalName]; ok {
		return fmt.Sprintf("%v", value)
	}
	return ""
}

// Facade dispatches translation to the adapter registered for a named
// external system, so callers never import a specific adapter directly.
type Facade struct {
	adapters map[string]ExternalSourceAdapter
}

func NewFacade() *Facade {
	return &Facade{adapters: make(map[string]ExternalSourceAdapter)}
}

func (f *Facade) RegisterAdapter(systemName string, adapter ExternalSourceAdapter) {
	f.adapters[systemName] = adapter
}

// Submit translates externalData from systemName into a document submission
// command. The caller is still responsible for sending it through the
// mediator.
func (f *Facade) Submit(ctx context.Context, systemName string, externalData interface{}) (commands.SubmitDocumentCommand, error) {
	adapter, ok := f.adapters[systemName]
	if !ok {
		return commands.SubmitDocumentCommand{}, fmt.Errorf("no adapter registered for system: %s", systemName)
	}
	return adapter.TranslateToSubmission(externalData)
}
