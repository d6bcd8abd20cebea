// Package metadata provides MetadataClient implementations: a reader over
// exported TMDB movie responses and a circuit breaker decorator for any
// client.
package metadata
