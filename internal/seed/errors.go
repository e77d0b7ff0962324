package seed

import "errors"

var (
	// ErrIngestFailure wraps every per-record failure in an Outcome.
	ErrIngestFailure = errors.New("seed: record ingest failed")

	// ErrIdentityExists is returned by an IdentityProvider when the account is
	// already registered.
	ErrIdentityExists = errors.New("seed: identity already exists")

	ErrUnknownKind       = errors.New("seed: unknown kind")
	ErrUnsupportedFormat = errors.New("seed: unsupported input format")
	ErrUnknownField      = errors.New("seed: unknown field")
	ErrInvalidS3Location = errors.New("seed: invalid s3 location")
)
