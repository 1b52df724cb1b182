// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/tendant/simple-transform/pkg/schema"
)

// Error carries a machine-readable code through the engine. NotFound and
// BadRequest are terminal; TransformFailed and StorageError mark the job
// failed and, under queue ingestion, leave the message for redelivery.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(msg string) *Error {
	return &Error{Code: schema.CodeNotFound, Message: msg}
}

func badRequest(msg string, err error) *Error {
	return &Error{Code: schema.CodeBadRequest, Message: msg, Err: err}
}

func transformFailed(err error) *Error {
	return &Error{Code: schema.CodeTransformFailed, Message: "transformation pipeline failed", Err: err}
}

func storageError(msg string, err error) *Error {
	return &Error{Code: schema.CodeStorageError, Message: msg, Err: err}
}

// CodeOf extracts the engine error code, or Internal for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return schema.CodeInternal
}
