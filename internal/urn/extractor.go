package urn

// PathExtractor projects parts of an urn into path→value pairs for the
// urn existence rows of the secondary index.
type PathExtractor interface {
	ExtractPaths(u Urn) map[string]any
}

// EmptyPathExtractor extracts nothing. It is the default: urns get an
// existence row set only when a real extractor is configured.
type EmptyPathExtractor struct{}

// ExtractPaths returns an empty map.
func (EmptyPathExtractor) ExtractPaths(Urn) map[string]any { return map[string]any{} }

// PartsPathExtractor exposes the urn's structural parts under fixed paths.
type PartsPathExtractor struct{}

// ExtractPaths returns the entity type and id segments.
func (PartsPathExtractor) ExtractPaths(u Urn) map[string]any {
	return map[string]any{
		"/entityType": u.EntityType(),
		"/id":         u.ID(),
	}
}
