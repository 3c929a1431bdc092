package models

import "encoding/json"

// Job type values carried in the AMQP message Type field.
const (
	JobTypeEngine        = "engine"
	JobTypeComprehensive = "comprehensive"
	JobTypeBulk          = "bulk"
)

// EngineJob requests one engine over one subject. Options is the JSON-encoded
// engine-specific options struct; an empty payload means engine defaults.
type EngineJob struct {
	Engine      string          `json:"engine"`
	ContentType ContentType     `json:"content_type"`
	ContentID   string          `json:"content_id"`
	Force       bool            `json:"force"`
	Options     json.RawMessage `json:"options,omitempty"`
}

type ComprehensiveJob struct {
	ContentType ContentType          `json:"content_type"`
	ContentID   string               `json:"content_id"`
	Force       bool                 `json:"force"`
	Options     ComprehensiveOptions `json:"options"`
}

type BulkJob struct {
	Engine      string          `json:"engine"`
	ContentType ContentType     `json:"content_type"`
	ContentIDs  []string        `json:"content_ids"`
	Force       bool            `json:"force"`
	Options     json.RawMessage `json:"options,omitempty"`
}
