package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped when the envelope structure changes so
// clients can detect incompatible servers.
const envelopeVersion = 1

// Envelope is the uniform response wrapper for every API payload.
// Success responses carry data; failures carry error.
type Envelope struct {
	V       int  `json:"v" doc:"Envelope version"`
	Success bool `json:"success" doc:"Whether the request succeeded"`
	Data    any  `json:"data,omitempty" doc:"Response payload"`
	Error   any  `json:"error,omitempty" doc:"Error details on failure"`
}

// EnvelopeTransformer wraps every huma response body in an Envelope.
// Registered as a huma config transformer at server construction.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	// Already wrapped (nested transformers, streamed bodies).
	if _, ok := v.(*Envelope); ok {
		return v, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   apiErr,
		}, nil
	}

	code, err := strconv.Atoi(status)
	if err == nil && code >= 400 {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   v,
		}, nil
	}

	return &Envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
