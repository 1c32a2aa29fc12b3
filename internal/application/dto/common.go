package dto

import "time"

// ListMetadata metadatos que acompañan a reportes.
type ListMetadata struct {
	TotalEntries int       `json:"total_entries"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Envelope cuerpo común de todas las respuestas HTTP.
type Envelope struct {
	Success  bool              `json:"success"`
	Data     any               `json:"data,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata *ListMetadata     `json:"metadata,omitempty"`
}
