package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentpatterns/hitlkit/kv"
)

// SavedSuffix is appended to a namespace to form its catalog key.
const SavedSuffix = "-saved"

// Record is a saved thread.
type Record struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`

	// savedAtText holds a savedAt that was stored as display text.
	savedAtText string
}

type recordJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	SavedAt any    `json:"savedAt"`
}

// SavedAtText returns the save time as RFC 3339, or the stored display text
// for records written by clients that store local time strings.
func (r Record) SavedAtText() string {
	if r.SavedAt.IsZero() && r.savedAtText != "" {
		return r.savedAtText
	}
	return r.SavedAt.Format(time.RFC3339)
}

// MarshalJSON writes display-text times back unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{ID: r.ID, Name: r.Name, SavedAt: r.SavedAt}
	if r.SavedAt.IsZero() && r.savedAtText != "" {
		out.SavedAt = r.savedAtText
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts savedAt as an RFC 3339 timestamp or as free-form
// text such as "3:04:05 PM".
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      string          `json:"id"`
		Name    string          `json:"name"`
		SavedAt json.RawMessage `json:"savedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{ID: raw.ID, Name: raw.Name}

	var text string
	if len(raw.SavedAt) == 0 || json.Unmarshal(raw.SavedAt, &text) != nil || text == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		r.SavedAt = t
		return nil
	}
	r.savedAtText = text
	return nil
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithClock sets the time source for SavedAt.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCatalogLogger sets the logger.
func WithCatalogLogger(logger Logger) CatalogOption {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Catalog keeps named snapshots of thread ids per namespace.
// Every mutation rewrites the whole list; nothing is cached.
type Catalog struct {
	kv     kv.Store
	now    func() time.Time
	logger Logger
}

// NewCatalog creates a Catalog backed by store.
func NewCatalog(store kv.Store, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		kv:     store,
		now:    time.Now,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the storage key of namespace's catalog.
func Key(namespace string) string {
	return namespace + SavedSuffix
}

// List returns the saved threads of namespace in save order. A missing,
// unreadable or undecodable entry yields an empty list.
func (c *Catalog) List(ctx context.Context, namespace string) []Record {
	records, err := c.load(ctx, namespace)
	if err != nil {
		c.logger.Warn("failed to read saved threads", "namespace", namespace, "error", err)
		return []Record{}
	}
	return records
}

// load reads the catalog. Only a failed read is an error; a missing or
// corrupt entry decodes to an empty list.
func (c *Catalog) load(ctx context.Context, namespace string) ([]Record, error) {
	raw, err := c.kv.Get(ctx, Key(namespace))
	if errors.Is(err, kv.ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("thread: read saved threads: %w", err)
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		c.logger.Warn("discarding corrupt saved threads", "namespace", namespace, "error", err)
		return []Record{}, nil
	}
	if records == nil {
		return []Record{}, nil
	}
	return records, nil
}

// Save appends a record for id. A blank name defaults to "Thread {n+1}"
// where n is the number of records already saved. Nothing is written when
// the existing catalog cannot be read.
func (c *Catalog) Save(ctx context.Context, namespace, id, name string) (Record, error) {
	records, err := c.load(ctx, namespace)
	if err != nil {
		return Record{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Thread %d", len(records)+1)
	}

	rec := Record{ID: id, Name: name, SavedAt: c.now()}
	records = append(records, rec)
	if err := c.write(ctx, namespace, records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes every record with id. It reports whether any was removed.
// Nothing is written when the existing catalog cannot be read.
func (c *Catalog) Delete(ctx context.Context, namespace, id string) (bool, error) {
	records, err := c.load(ctx, namespace)
	if err != nil {
		return false, err
	}

	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	removed := len(kept) != len(records)

	if err := c.write(ctx, namespace, kept); err != nil {
		return false, err
	}
	return removed, nil
}

func (c *Catalog) write(ctx context.Context, namespace string, records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("thread: encode saved threads: %w", err)
	}
	if err := c.kv.Set(ctx, Key(namespace), string(raw)); err != nil {
		return fmt.Errorf("thread: write saved threads: %w", err)
	}
	return nil
}
