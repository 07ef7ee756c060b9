package optimize

import "errors"

var (
	// ErrInvalidAPIKey indicates an invalid or missing API key.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrModelNotSupported indicates the model name is not usable with
	// any backend.
	ErrModelNotSupported = errors.New("model not supported")

	// ErrGenerationFailed indicates the backend failed mid-generation.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNoContentReturned indicates the backend finished without
	// producing any output.
	ErrNoContentReturned = errors.New("no content returned")

	// ErrClientCreationFailed indicates a failure creating the API client.
	ErrClientCreationFailed = errors.New("failed to create API client")
)
