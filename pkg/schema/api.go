// pkg/schema/api.go
package schema

// Error codes returned by the HTTP surface and carried by engine errors.
const (
	CodeNotFound        = "NotFound"
	CodeBadRequest      = "BadRequest"
	CodeNotReady        = "NotReady"
	CodeTransformFailed = "TransformFailed"
	CodeStorageError    = "StorageError"
	CodeLeaseError      = "LeaseError"
	CodeInternal        = "Internal"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateJobRequest struct {
	FileID     string `json:"fileId"`
	Iterations int    `json:"iterations,omitempty"`
	Kernel     string `json:"kernel,omitempty"`
}

type CreateJobResponse struct {
	ID string `json:"id"`
}

type ProcessJobResponse struct {
	Status     string `json:"status"`
	OutputKey  string `json:"outputKey"`
	ThumbKey   string `json:"thumbKey"`
	DurationMs int64  `json:"durationMs"`
	Iterations int    `json:"iterations"`
	Kernel     string `json:"kernel"`
}

type JobResultResponse struct {
	OutputURL string `json:"outputUrl"`
	ThumbURL  string `json:"thumbUrl"`
	ExpiresIn int    `json:"expiresIn"`
}
