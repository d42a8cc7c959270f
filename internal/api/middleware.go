package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the current response envelope version.
// Bump this when the envelope structure changes in a breaking way.
const EnvelopeVersion = 1

// APIEnvelope wraps every response in a versioned envelope.
// The field is named 'v' on the wire; clients key off it before parsing
// the rest of the payload.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope is the envelope for errors that carry a machine-readable
// code and structured details, produced from APIError responses.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps all API responses in the versioned envelope.
// Registered on the huma config so it applies to every operation.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		if apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   apiErr.Message,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}

// userOrLocal resolves the acting user from the X-User-ID header.
// The server runs without accounts; an empty header means the default
// local user.
func userOrLocal(id string) string {
	if id == "" {
		return "local"
	}
	return id
}
