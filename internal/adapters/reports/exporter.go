// Package reports renders the planning views into downloadable files and
// archives them in the blob store.
package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"inventorycore/internal/blob"
	"inventorycore/internal/core"
)

// Kind names a report.
type Kind string

// Supported report kinds.
const (
	KindProductionCheck    Kind = "production-check"
	KindProductionPriority Kind = "production-priority"
)

// KeyPrefix is the blob namespace every report is stored under.
const KeyPrefix = "reports/"

var (
	// ErrUnknownKind reports an unsupported report kind.
	ErrUnknownKind = errors.New("unknown report kind")
	// ErrUnknownFormat reports an unsupported report format.
	ErrUnknownFormat = errors.New("unknown report format")
)

// ParseKind validates a report kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindProductionCheck, KindProductionPriority:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Source supplies the planning views a report is built from.
type Source interface {
	ComputeAllFeasibility(ctx context.Context) ([]core.Feasibility, error)
	ComputePriority(ctx context.Context) ([]core.PriorityEntry, error)
}

// Exporter builds reports from Source and stores them.
type Exporter struct {
	source Source
	store  blob.Store
	now    func() time.Time
	newID  func() string
}

// NewExporter wires an exporter.
func NewExporter(source Source, store blob.Store) *Exporter {
	return &Exporter{
		source: source,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Export renders kind in format and stores it under a fresh key.
func (e *Exporter) Export(ctx context.Context, kind Kind, format Format) (blob.Info, error) {
	t, err := e.build(ctx, kind)
	if err != nil {
		return blob.Info{}, err
	}
	payload, err := render(t, format)
	if err != nil {
		return blob.Info{}, err
	}
	created := e.now()
	key := fmt.Sprintf("%s%s/%s-%s.%s", KeyPrefix, kind, created.Format("20060102T150405Z"), e.newID(), format)
	return e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata: map[string]string{
			"kind":       string(kind),
			"format":     string(format),
			"rows":       fmt.Sprint(len(t.Rows)),
			"created_at": created.Format(time.RFC3339),
		},
	})
}

// List returns every stored report ordered by key.
func (e *Exporter) List(ctx context.Context) ([]blob.Info, error) {
	return e.store.List(ctx, KeyPrefix)
}

// Open streams a stored report. Keys outside the report namespace are not found.
func (e *Exporter) Open(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	if len(key) <= len(KeyPrefix) || key[:len(KeyPrefix)] != KeyPrefix {
		return blob.Info{}, nil, fmt.Errorf("report %s: %w", key, blob.ErrNotFound)
	}
	return e.store.Get(ctx, key)
}

func (e *Exporter) build(ctx context.Context, kind Kind) (table, error) {
	switch kind {
	case KindProductionCheck:
		rows, err := e.source.ComputeAllFeasibility(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Sheet: "Production check", Columns: []string{"productId", "productName", "maxCanProduce"}}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.ProductID, r.ProductName, r.MaxCanProduce})
		}
		return t, nil
	case KindProductionPriority:
		entries, err := e.source.ComputePriority(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{Sheet: "Production priority", Columns: []string{"productId", "name", "unitPrice", "maxQuantity", "suggestedValue"}}
		for _, p := range entries {
			t.Rows = append(t.Rows, []any{p.ProductID, p.Name, p.UnitPrice, p.MaxQuantity, p.SuggestedValue()})
		}
		return t, nil
	default:
		return table{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
