// Package cache stores resolved plans, extraction results and rendered
// artifacts between runs.
//
// Three backends implement [Cache]: [FileCache] for the CLI (one JSON file
// per entry under the user cache directory), [RedisCache] for the HTTP
// service, and [NullCache] when caching is disabled. Keys are built by a
// [Keyer] so that every entry point derives identical keys from identical
// inputs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default lifetimes per entry kind.
const (
	// TTLPlan covers resolved plans. Plans are a pure function of the
	// document and configuration, so they only expire to bound disk use.
	TTLPlan = 7 * 24 * time.Hour
	// TTLExtract covers documents produced by the text-understanding service.
	TTLExtract = 30 * 24 * time.Hour
	// TTLArtifact covers rendered outputs (SVG, DOT).
	TTLArtifact = 7 * 24 * time.Hour
)

// PlanKeyOpts are the inputs besides the document that change a plan.
type PlanKeyOpts struct {
	// ConfigKey is the digest of every configuration value that affects
	// defaulting or shell synthesis.
	ConfigKey string `json:"config"`
}

// ExtractKeyOpts are the inputs besides the prompt that change an extraction.
type ExtractKeyOpts struct {
	Model string `json:"model"`
}

// ArtifactKeyOpts select one rendering of a plan.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer derives cache keys.
type Keyer interface {
	PlanKey(docHash string, opts PlanKeyOpts) string
	ExtractKey(promptHash string, opts ExtractKeyOpts) string
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the inputs of each key under a per-kind prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlanKey returns "plan:<sha256>".
func (DefaultKeyer) PlanKey(docHash string, opts PlanKeyOpts) string {
	return hashKey("plan", docHash, opts)
}

// ExtractKey returns "extract:<sha256>".
func (DefaultKeyer) ExtractKey(promptHash string, opts ExtractKeyOpts) string {
	return hashKey("extract", promptHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}
