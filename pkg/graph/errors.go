package graph

import "fmt"

// ChunkingError reports that the input could not be split into chunks.
// No extraction has been attempted when it is returned.
type ChunkingError struct {
	Err error
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("failed to chunk text: %v", e.Err)
}

func (e *ChunkingError) Unwrap() error {
	return e.Err
}

// ExtractionError reports that the extractor failed on chunk Index of Total.
// Chunks after Index were not attempted and no partial graph exists.
type ExtractionError struct {
	Index int
	Total int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed on chunk %d/%d: %v", e.Index, e.Total, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
