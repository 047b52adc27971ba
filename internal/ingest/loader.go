package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spendlens/spendlens/internal/catalog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// batchSize is how many documents are buffered per insert.
const batchSize = 1000

// indexedFields are the single-field indexes the analytics queries lean on.
var indexedFields = []string{
	"creation_date",
	"calendar_year",
	"calendar_month",
	"calendar_quarter",
	"fiscal_year_start",
	"fiscal_quarter",
	"supplier_name",
	"department_name",
}

// unknownColumns returns normalized CSV columns absent from the field
// catalog, in input order. Unknown columns still load; they are just
// invisible to the model-backed stages, which is worth a warning.
func unknownColumns(normalized []string) []string {
	names, err := catalog.FieldNames()
	if err != nil {
		return nil
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	var out []string
	for _, col := range normalized {
		if !known[col] {
			out = append(out, col)
		}
	}
	return out
}

// Loader streams CSV rows into a collection.
type Loader struct {
	coll *mongo.Collection
}

// NewLoader creates a loader targeting the given collection.
func NewLoader(coll *mongo.Collection) *Loader {
	return &Loader{coll: coll}
}

// Run reads the CSV from r and inserts every row, returning the number of
// documents inserted. The first record is the header row.
func (l *Loader) Run(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.New("csv has no headers")
		}
		return 0, fmt.Errorf("read csv headers: %w", err)
	}
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeKey(h)
	}
	for _, col := range unknownColumns(normalized) {
		log.Warn().Str("column", col).Msg("ingest: column is not in the field catalog; stages will not know about it")
	}

	inserted := 0
	batch := make([]any, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := l.coll.InsertMany(ctx, batch); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return inserted, fmt.Errorf("read csv row: %w", err)
		}

		doc := make(map[string]any, len(normalized)+5)
		for i, key := range normalized {
			var value string
			if i < len(record) {
				value = record[i]
			}
			doc[key] = parseCell(key, value)
		}
		deriveDateFields(doc)

		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return inserted, err
			}
			log.Debug().Int("inserted", inserted).Msg("ingest: batch flushed")
		}
	}
	if err := flush(); err != nil {
		return inserted, err
	}

	log.Info().Int("inserted", inserted).Msg("ingest: load complete")
	return inserted, nil
}

// EnsureIndexes creates the single-field indexes used by analytics queries.
func (l *Loader) EnsureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(indexedFields))
	for _, field := range indexedFields {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}},
		})
	}
	if _, err := l.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}
