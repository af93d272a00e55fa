package domain

import "go.trai.ch/zerr"

var (
	// ErrTruncatedValue is returned when a serialized key or value is too
	// short to decode.
	ErrTruncatedValue = zerr.New("truncated encoded value")

	// ErrUnknownKeyKind is returned when a key's discriminator byte does
	// not name a known kind.
	ErrUnknownKeyKind = zerr.New("unknown key kind")

	// ErrUnknownValueKind is returned when a serialized value carries an
	// unknown tag byte.
	ErrUnknownValueKind = zerr.New("unknown value kind")

	// ErrSchemaVersionMismatch is returned when a build database was
	// created with a different schema version.
	ErrSchemaVersionMismatch = zerr.New("build database schema version mismatch")

	// ErrBuildFailed is returned by the application layer when a build
	// completes with reported errors or command failures.
	ErrBuildFailed = zerr.New("build failed")

	// ErrLoadFailed is returned when the build manifest cannot be loaded.
	ErrLoadFailed = zerr.New("unable to load build file")
)
