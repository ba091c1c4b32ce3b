package httpapi

import (
	"errors"
	"net/http"

	"github.com/farehop/farehop/pkg/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps the relay error taxonomy onto transport statuses:
//
//	ErrInvalidReference, ErrUnknownItem -> 422
//	ErrExpired                         -> 410, code search_result_expiry
//	ErrNotFound                        -> 404
//	ErrCorruptRecord                   -> 500 (logged as a defect)
//	CollaboratorError                  -> 400 for client faults, 502 otherwise
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)
	status := http.StatusInternalServerError
	message := "internal error"

	var collab *domain.CollaboratorError
	switch {
	case errors.Is(err, domain.ErrInvalidReference):
		status = http.StatusUnprocessableEntity
		message = "invalid or expired reference"
	case errors.Is(err, domain.ErrExpired):
		status = http.StatusGone
		message = "search result expired; please start a new search"
	case errors.Is(err, domain.ErrUnknownItem):
		status = http.StatusUnprocessableEntity
		message = "selected item was not part of the staged results"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "record not found"
	case errors.Is(err, domain.ErrCorruptRecord):
		s.logger.Error("corrupt staged record", "error", err)
	case errors.As(err, &collab):
		if collab.ClientFault {
			status = http.StatusBadRequest
			message = collab.Detail
		} else {
			status = http.StatusBadGateway
			message = "upstream service failed"
			s.logger.Error("collaborator failure", "collaborator", collab.Collaborator, "error", err)
		}
	default:
		s.logger.Error("unhandled error", "error", err)
	}

	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func (s *Server) writeValidationError(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{
		Error: errorDetail{Code: "validation_error", Message: message},
	})
}
