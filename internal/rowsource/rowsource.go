// Package rowsource defines the abstract row-loading interface the
// pipeline reads datasets through, plus reference CSV and XLSX adapters.
package rowsource

import (
	"context"

	"github.com/dqrepair/pipeline/internal/dqmodel"
)

// Source loads an ordered row set plus its column names. limit <= 0 means
// "no limit". A caller embedding the core in a larger service supplies its
// own Source (e.g. backed by a warehouse query) instead of these adapters.
type Source interface {
	Load(ctx context.Context, limit int) (rows []dqmodel.Row, columns []string, err error)
}
