package web

import (
	"strings"

	"github.com/dukex/flowmeta/pkg/models"
	"github.com/dukex/flowmeta/pkg/services"
	"github.com/xeipuuv/gojsonschema"
)

// RichRunRequest is the body of a rich run upsert. Every field is optional.
type RichRunRequest struct {
	Success         *bool  `json:"success"`
	Finished        *bool  `json:"finished"`
	FinishedAt      *int64 `json:"finished_at"`
	ExecutionLength *int64 `json:"execution_length"`
}

// ToRow builds the write model for the run addressed by the path.
func (r RichRunRequest) ToRow(flowID string, runNumber int64) *models.RichRunRow {
	return &models.RichRunRow{
		FlowID:          flowID,
		RunNumber:       runNumber,
		Success:         r.Success,
		Finished:        r.Finished,
		FinishedAt:      r.FinishedAt,
		ExecutionLength: r.ExecutionLength,
	}
}

// richRunSchema checks field types only; unknown fields are ignored.
const richRunSchema = `{
	"type": "object",
	"properties": {
		"success":          {"type": ["boolean", "null"]},
		"finished":         {"type": ["boolean", "null"]},
		"finished_at":      {"type": ["integer", "null"]},
		"execution_length": {"type": ["integer", "null"]}
	}
}`

var richRunSchemaLoader = gojsonschema.NewStringLoader(richRunSchema)

// validateRichRunBody validates a raw request body against richRunSchema.
// An empty body is an empty object. Failures wrap services.ErrInvalidPayload.
func validateRichRunBody(body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(richRunSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return services.NewValidationError("UpsertRichRun", "malformed JSON: "+err.Error(), services.ErrInvalidPayload)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return services.NewValidationError("UpsertRichRun", strings.Join(messages, "; "), services.ErrInvalidPayload)
	}

	return nil
}
