package types

import "errors"

var (
	ErrUnknownBudgetTier = errors.New("unknown budget tier")
	ErrUnsupportedFilter = errors.New("unsupported catalog filter")
	ErrAborted           = errors.New("aborted by user")
	ErrInputClosed       = errors.New("input closed")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrEmptyEmbedding    = errors.New("provider returned no embedding")
	ErrUnsupportedFormat = errors.New("unsupported ingestion file format")
)
