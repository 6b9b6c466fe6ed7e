package types

import "github.com/google/uuid"

// VectorDocument is a row of the travel_vectors table.
type VectorDocument struct {
	ID         uuid.UUID
	Content    string
	Embedding  []float32
	Similarity float64
}
