package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/Ko-stant/maze-division-engine/internal/maze"
)

const (
	CodeInvalidRequest   = "InvalidRequest"
	CodeValidation       = "ValidationError"
	CodeInvalidSize      = "InvalidSize"
	CodeInvalidBudget    = "InvalidBudget"
	CodeInvalidStepDelay = "InvalidStepDelay"
	CodeGenerationFailed = "GenerationFailed"
	CodeRateLimited      = "RateLimited"
	CodeRunNotFound      = "RunNotFound"
)

// MazeError is a request-level failure reported to clients
type MazeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *MazeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Status maps the error code onto an HTTP status
func (e *MazeError) Status() int {
	switch e.Code {
	case CodeGenerationFailed:
		return http.StatusInternalServerError
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeRunNotFound:
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// mazeErrorFrom classifies errors coming out of the maze package
func mazeErrorFrom(err error) *MazeError {
	var me *MazeError
	switch {
	case errors.As(err, &me):
		return me
	case errors.Is(err, maze.ErrInvalidSize):
		return &MazeError{Code: CodeInvalidSize, Message: err.Error()}
	case errors.Is(err, maze.ErrInvalidBudget):
		return &MazeError{Code: CodeInvalidBudget, Message: err.Error()}
	}
	return &MazeError{Code: CodeGenerationFailed, Message: err.Error()}
}

func writeError(w http.ResponseWriter, err *MazeError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(err)
}
