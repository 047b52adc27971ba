// Package mongodb owns the process-wide MongoDB connection and executes
// generated aggregation pipelines.
package mongodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spendlens/spendlens/internal/plan"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Handle is the lazily-initialized shared client. The first caller
// establishes the connection; every later caller reuses it. The client is
// safe for concurrent use across in-flight requests.
type Handle struct {
	uri string

	once   sync.Once
	client *mongo.Client
	err    error
}

// NewHandle prepares a handle without connecting.
func NewHandle(uri string) *Handle {
	return &Handle{uri: uri}
}

// Client returns the shared client, connecting on first use.
func (h *Handle) Client() (*mongo.Client, error) {
	h.once.Do(func() {
		client, err := mongo.Connect(options.Client().ApplyURI(h.uri))
		if err != nil {
			h.err = fmt.Errorf("connect mongodb: %w", err)
			return
		}
		h.client = client
	})
	return h.client, h.err
}

// Close disconnects the shared client if it was ever opened.
func (h *Handle) Close(ctx context.Context) error {
	if h.client == nil {
		return nil
	}
	return h.client.Disconnect(ctx)
}

// Executor runs aggregation pipelines against one database.
type Executor struct {
	handle   *Handle
	database string
}

// NewExecutor creates an executor bound to a database.
func NewExecutor(handle *Handle, database string) *Executor {
	return &Executor{handle: handle, database: database}
}

// Aggregate runs a pipeline and returns serialized row maps. Disk use is
// allowed so large intermediate results are not rejected by the server; cap,
// when positive, appends a $limit stage.
func (e *Executor) Aggregate(ctx context.Context, collection string, stages []*plan.Node, cap int) ([]map[string]any, error) {
	client, err := e.handle.Client()
	if err != nil {
		return nil, err
	}

	pipeline := make(mongo.Pipeline, 0, len(stages)+1)
	for i, stage := range stages {
		doc, err := stageToBSON(stage)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		pipeline = append(pipeline, doc)
	}
	if cap > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: cap}})
	}

	coll := client.Database(e.database).Collection(collection)
	cursor, err := coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("close aggregation cursor")
		}
	}()

	var rows []map[string]any
	for cursor.Next(ctx) {
		var row bson.D
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, rowToMap(row))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return rows, nil
}

func stageToBSON(stage *plan.Node) (bson.D, error) {
	if stage == nil || stage.Kind() != plan.KindMapping {
		return nil, fmt.Errorf("pipeline stage is not a document")
	}
	value, err := nodeToBSON(stage)
	if err != nil {
		return nil, err
	}
	doc, ok := value.(bson.D)
	if !ok {
		return nil, fmt.Errorf("pipeline stage is not a document")
	}
	return doc, nil
}

func nodeToBSON(node *plan.Node) (any, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Kind() {
	case plan.KindScalar:
		return node.ScalarValue(), nil
	case plan.KindSequence:
		arr := make(bson.A, 0, len(node.Items()))
		for _, item := range node.Items() {
			value, err := nodeToBSON(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		return arr, nil
	case plan.KindMapping:
		doc := make(bson.D, 0, len(node.Entries()))
		for _, entry := range node.Entries() {
			value, err := nodeToBSON(entry.Value)
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: entry.Key, Value: value})
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("unknown node kind %d", node.Kind())
	}
}
