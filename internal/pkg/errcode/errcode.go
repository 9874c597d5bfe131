package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrInvalid
	ErrMissingInput
	ErrNotFound
	ErrEmbeddingFailed
	ErrStoreUnavailable
	ErrTooMany
	ErrInternal
)
