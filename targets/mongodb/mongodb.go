// Package mongodb ships record batches into a MongoDB collection with one
// InsertMany call per batch. Named record data keeps its insertion order by
// serializing to a bson.D document.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/gaborage/logfan"
)

// DefaultCollection is the destination collection when none is configured.
const DefaultCollection = "log_records"

// inserter is the subset of *mongo.Collection the sink needs; the seam keeps
// unit tests free of a running server.
type inserter interface {
	InsertMany(ctx context.Context, documents any, opts ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error)
}

// Sink writes batches to a MongoDB collection.
type Sink struct {
	coll inserter
}

var _ logfan.BatchSink = (*Sink)(nil)

// New wraps a collection. The caller owns the client lifecycle.
func New(coll *mongo.Collection) (*Sink, error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	return &Sink{coll: coll}, nil
}

// document is the persisted shape of one record.
type document struct {
	LoggedAt     time.Time `bson:"logged_at"`
	LoggerName   string    `bson:"logger_name"`
	Severity     string    `bson:"severity"`
	SeverityCode int       `bson:"severity_code"`
	Message      string    `bson:"message"`
	Data         bson.D    `bson:"data,omitempty"`
	Error        string    `bson:"error,omitempty"`
}

// LogRecords inserts the batch with a single InsertMany.
func (s *Sink) LogRecords(ctx context.Context, records []logfan.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]any, 0, len(records))
	for i := range records {
		docs = append(docs, toDocument(records[i]))
	}

	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongodb: failed to insert %d records: %w", len(records), err)
	}
	return nil
}

func toDocument(record logfan.Record) document {
	doc := document{
		LoggedAt:     record.Time,
		LoggerName:   record.Logger,
		Severity:     record.Level.String(),
		SeverityCode: int(record.Level),
		Message:      record.FormatMessage(),
	}
	for _, f := range record.Data {
		doc.Data = append(doc.Data, bson.E{Key: f.Key, Value: f.Value})
	}
	if record.Err != nil {
		doc.Error = record.Err.Error()
	}
	return doc
}
