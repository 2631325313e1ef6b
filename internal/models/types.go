package models

import (
	"time"
)

// Input message
type GenerationRequest struct {
	Prompt string `json:"prompt" description:"Topic or prompt for the blog post"`
}

// GenerationRecord is created once per successful generation and never mutated.
type GenerationRecord struct {
	ID        string    `json:"id" description:"Unique record identifier"`
	Prompt    string    `json:"prompt" description:"The prompt exactly as supplied by the caller"`
	Content   string    `json:"content" description:"Generated blog post"`
	CreatedAt time.Time `json:"createdAt" description:"Creation time (RFC 3339, UTC)"`
}

type BatchRequest struct {
	Prompts []string `json:"prompts,omitempty" description:"Prompts to generate, one record each"`
	Text    string   `json:"text,omitempty" description:"Alternative input: one prompt per line"`
}

type BatchStatus string

const (
	BatchStatusCreated BatchStatus = "created"
	BatchStatusSkipped BatchStatus = "skipped"
	BatchStatusFailed  BatchStatus = "failed"
)

// One prompt's outcome inside a batch
type BatchItem struct {
	Prompt string            `json:"prompt"`
	Status BatchStatus       `json:"status"`
	Record *GenerationRecord `json:"record,omitempty"`
	Error  string            `json:"error,omitempty"`
}

type BatchResult struct {
	Items   []BatchItem `json:"items"`
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
}

type RecordList struct {
	Records []GenerationRecord `json:"records"`
	Count   int                `json:"count"`
}
