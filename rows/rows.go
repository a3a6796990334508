package rows

import (
	"context"
	"encoding/json"
	"math"

	"github.com/indexgate/indexgate/textindexer/index"
	"golang.org/x/xerrors"
)

// DocSource is implemented by objects that can return the stored fields of
// a ranked match. index.Snapshot satisfies this interface.
type DocSource interface {
	Document(ctx context.Context, docID string) ([]index.StoredField, error)
}

// Row is a single rendered match.
type Row struct {
	// The document identifier.
	ID string `json:"id"`

	// The relevance score; nil for unscored matches.
	Score *float64 `json:"score,omitempty"`

	// The values the match was ordered by; only set for sorted searches.
	SortOrder []interface{} `json:"sort_order,omitempty"`

	// The flattened stored fields other than the identifier.
	Fields *Fields `json:"fields,omitempty"`

	// The full document from the document store.
	Doc json.RawMessage `json:"doc,omitempty"`
}

// EffectiveCount returns the number of rows a page starting at skip can
// hold: the matches left after skipping, capped at limit and never
// negative.
func EffectiveCount(total uint64, skip, limit int) int {
	if skip < 0 || limit <= 0 || uint64(skip) >= total {
		return 0
	}
	if remaining := total - uint64(skip); remaining < uint64(limit) {
		return int(remaining)
	}
	return limit
}

// Materialize builds the rows for the ranked positions skip to
// skip+EffectiveCount-1 of top. Sort values are attached to each row when
// withSort is true. It also returns the identifiers of the materialized
// documents in rank order.
func Materialize(ctx context.Context, src DocSource, top *index.TopDocs, skip, limit int, withSort bool) ([]Row, []string, error) {
	count := EffectiveCount(top.TotalHits, skip, limit)
	if avail := len(top.ScoreDocs) - skip; count > avail {
		count = avail
	}
	if count <= 0 {
		return []Row{}, nil, nil
	}

	rows := make([]Row, 0, count)
	ids := make([]string, 0, count)
	for _, sd := range top.ScoreDocs[skip : skip+count] {
		stored, err := src.Document(ctx, sd.DocID)
		if err != nil {
			return nil, nil, xerrors.Errorf("materialize %q: %w", sd.DocID, err)
		}

		row := makeRow(stored)
		if row.ID == "" {
			row.ID = sd.DocID
		}
		if !math.IsNaN(sd.Score) {
			score := sd.Score
			row.Score = &score
		}
		if withSort {
			row.SortOrder = sd.SortValues
		}

		rows = append(rows, row)
		ids = append(ids, row.ID)
	}

	return rows, ids, nil
}

func makeRow(stored []index.StoredField) Row {
	var (
		row    Row
		fields Fields
	)
	for _, sf := range stored {
		if sf.Name == index.IDField {
			row.ID = sf.Value
			continue
		}
		fields.Add(sf.Name, sf.Value)
	}

	if fields.Len() != 0 {
		row.Fields = &fields
	}
	return row
}
