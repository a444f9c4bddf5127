package table

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrMissingSheet is returned when a workbook has no sheet of the
	// configured name.
	ErrMissingSheet = errors.New("sheet not found")
	// ErrMissingColumn is returned when a source lacks DATE or DATETIME.
	ErrMissingColumn = errors.New("required column missing")
	// ErrUnknownKind is returned for a source kind no loader handles.
	ErrUnknownKind = errors.New("unknown source kind")
)

// LoadError reports a source that could not be turned into a Dataset.
// It is fatal for the session that tried to load it.
type LoadError struct {
	Source string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader reads configured sources into a Store.
type Loader struct {
	// Timeout bounds each sql source. Zero means no limit.
	Timeout time.Duration
}

func NewLoader(timeout time.Duration) *Loader {
	return &Loader{Timeout: timeout}
}

// Load reads every source in order. The first failure aborts the load;
// there is no partial store.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Store, error) {
	datasets := make([]*Dataset, 0, len(sources))
	for _, src := range sources {
		ds, err := l.LoadSource(ctx, src)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return NewStore(datasets...)
}

// LoadSource reads one source and checks it has DATE and DATETIME.
func (l *Loader) LoadSource(ctx context.Context, src Source) (*Dataset, error) {
	start := time.Now()

	var (
		headers []string
		rows    [][]string
		err     error
	)
	switch src.ResolvedKind() {
	case KindXLSX:
		headers, rows, err = readXLSX(src.Path, src.sheet())
	case KindCSV:
		headers, rows, err = readCSV(src.Path)
	case KindSQL:
		sctx := ctx
		if l.Timeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, l.Timeout)
			defer cancel()
		}
		headers, rows, err = readSQL(sctx, src)
	default:
		err = errors.Wrapf(ErrUnknownKind, "%q", src.Kind)
	}
	if err != nil {
		return nil, &LoadError{Source: src.Name, Path: src.Location(), Err: err}
	}

	ds := NewDataset(src.Name, headers, rows)
	ds.FilePath = src.Path
	for _, col := range []string{ColDateTime, ColDate} {
		if !ds.HasColumn(col) {
			return nil, &LoadError{
				Source: src.Name,
				Path:   src.Location(),
				Err:    errors.Wrap(ErrMissingColumn, col),
			}
		}
	}

	log.Printf("[table] loaded %s from %s: %d rows, %d columns in %s",
		ds.Name, src.Location(), ds.NumRows(), ds.NumColumns(), time.Since(start).Round(time.Millisecond))
	return ds, nil
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), suffix)
}
