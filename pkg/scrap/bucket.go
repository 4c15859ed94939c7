package scrap

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
)

// Bucket points at a Git repository holding one manifest file per
// application.
type Bucket struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// DirName is the directory the bucket is synced into below the buckets
// dir: the human name when present, the derived id otherwise.
func (b Bucket) DirName() string {
	if b.Name != "" {
		return b.Name
	}
	if b.ID != "" {
		return b.ID
	}
	return BucketID(b.URL)
}

// BucketID derives a deterministic 12-character id from a bucket URL. The
// URL is normalized first so that spellings with and without a trailing
// slash or a .git suffix map to the same bucket.
func BucketID(url string) string {
	normalized := strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	digest := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(digest[:])[:12]
}

// BucketRegistry is the persisted set of known buckets. It remembers
// ad-hoc bucket URLs across invocations.
type BucketRegistry struct {
	Buckets []Bucket `json:"buckets"`
}

func (r *BucketRegistry) GetByName(name string) *Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].Name == name {
			return &r.Buckets[i]
		}
	}
	return nil
}

func (r *BucketRegistry) GetByURL(url string) *Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].URL == url {
			return &r.Buckets[i]
		}
	}
	return nil
}

func (r *BucketRegistry) GetByID(id string) *Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].ID == id {
			return &r.Buckets[i]
		}
	}
	return nil
}

// AddOrUpdate upserts a bucket, matching by id first and falling back to
// the URL. Empty incoming fields never clear existing ones.
func (r *BucketRegistry) AddOrUpdate(bucket Bucket) {
	var existing *Bucket
	if bucket.ID != "" {
		existing = r.GetByID(bucket.ID)
	}
	if existing == nil {
		existing = r.GetByURL(bucket.URL)
	}

	if existing == nil {
		r.Buckets = append(r.Buckets, bucket)
		return
	}
	if bucket.Name != "" {
		existing.Name = bucket.Name
	}
	if bucket.ID != "" {
		existing.ID = bucket.ID
	}
	existing.URL = bucket.URL
}

// Remove deletes the bucket with the given id, if present.
func (r *BucketRegistry) Remove(id string) {
	filtered := r.Buckets[:0]
	for _, bucket := range r.Buckets {
		if bucket.ID != id {
			filtered = append(filtered, bucket)
		}
	}
	r.Buckets = filtered
}

// LoadRegistry reads the bucket registry. A missing file yields an empty
// registry; a corrupt file is downgraded to a warning and treated as
// empty, so a broken registry never blocks an install.
func LoadRegistry(path string) *BucketRegistry {
	var registry BucketRegistry
	if _, err := os.Stat(path); err != nil {
		return &registry
	}
	if err := readJSONFile(path, &registry); err != nil {
		slog.Warn("ignoring corrupt bucket registry", "path", path, "error", err)
		return &BucketRegistry{}
	}
	return &registry
}

// Save persists the registry.
func (r *BucketRegistry) Save(path string) error {
	return writeJSONFile(path, r)
}
