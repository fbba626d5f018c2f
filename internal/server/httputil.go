package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/schema"
)

// errorBody is the JSON error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encoding response", zap.Int("status", status), zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorBody{Error: message, Code: code})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// schemaErrorToHTTP maps schema load and validation failures to 422
// responses that carry the structured error.
func (s *Server) schemaErrorToHTTP(w http.ResponseWriter, err error) {
	var (
		parse *schema.SchemaParseError
		audit *schema.MissingAuditFieldsError
		ids   *schema.MissingIDError
		names *schema.ReservedNameError
		phase *pipeline.PhaseError
	)
	body := errorBody{Error: err.Error(), Code: "INVALID_SCHEMA"}
	switch {
	case errors.As(err, &parse):
		body.Code = "PARSE_ERROR"
		body.Details = map[string]any{"line": parse.Line, "column": parse.Col}
	case errors.As(err, &audit):
		body.Code = "MISSING_AUDIT_FIELDS"
		body.Details = audit.Missing
	case errors.As(err, &ids):
		body.Code = "MISSING_ID"
		body.Details = ids.Entities
	case errors.As(err, &names):
		body.Code = "RESERVED_NAME"
		body.Details = names.Entities
	case errors.As(err, &phase):
		s.writeError(w, http.StatusInternalServerError, "RENDER_ERROR", err.Error())
		return
	}
	s.writeJSON(w, http.StatusUnprocessableEntity, body)
}
