// Package mongo implements the file index on a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const duplicateKeyCode = 11000

type fileDoc struct {
	ID      string   `bson:"_id"`
	Name    string   `bson:"name"`
	Path    string   `bson:"path"`
	Size    int64    `bson:"size"`
	Tags    []string `bson:"tags"`
	Version int64    `bson:"version"`
}

func toDoc(rec *model.FileRecord) fileDoc {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return fileDoc{ID: rec.ID, Name: rec.Name, Path: rec.Path, Size: rec.Size, Tags: tags, Version: 1}
}

func (d fileDoc) record() *model.FileRecord {
	r := &model.FileRecord{ID: d.ID, Name: d.Name, Path: d.Path, Size: d.Size, Tags: d.Tags, Version: d.Version}
	return r.Normalize()
}

// Store is an index.Store over one collection.
type Store struct {
	coll *mongo.Collection
	// majority is coll with a majority write concern, used when the caller
	// asks for the write to be visible before returning.
	majority *mongo.Collection
	provider *Provider
}

var _ index.Store = (*Store)(nil)

// NewStore wraps collection in db. The caller keeps ownership of the client.
func NewStore(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = "files"
	}
	return &Store{
		coll:     db.Collection(collection),
		majority: db.Collection(collection, options.Collection().SetWriteConcern(writeconcern.Majority())),
	}
}

// Open connects to MongoDB, prepares indexes and returns a Store that closes
// the connection on Close.
func Open(ctx context.Context, p *Provider, collection string) (*Store, error) {
	s := NewStore(p.Database(), collection)
	s.provider = p
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	var doc fileDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, model.WrapError(err)
	}
	return doc.record(), nil
}

func (s *Store) CreateIfAbsent(ctx context.Context, rec *model.FileRecord) (bool, error) {
	_, err := s.coll.InsertOne(ctx, toDoc(rec))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, model.WrapError(err)
	}
	return true, nil
}

func (s *Store) BulkCreateIfAbsent(ctx context.Context, recs []*model.FileRecord) (index.BulkResult, error) {
	if len(recs) == 0 {
		return index.BulkResult{}, nil
	}
	docs := make([]interface{}, len(recs))
	for i, rec := range recs {
		docs[i] = toDoc(rec)
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return classifyBulkError(len(recs), err)
}

// classifyBulkError turns an unordered InsertMany outcome into counts.
// Duplicate-key write errors are skips; anything else is a failure.
func classifyBulkError(n int, err error) (index.BulkResult, error) {
	if err == nil {
		return index.BulkResult{Created: n}, nil
	}
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return index.BulkResult{Failed: n}, model.WrapError(err)
	}
	res := index.BulkResult{}
	for _, we := range bwe.WriteErrors {
		if we.Code == duplicateKeyCode {
			res.Skipped++
		} else {
			res.Failed++
		}
	}
	res.Created = n - res.Skipped - res.Failed
	if res.Failed > 0 || bwe.WriteConcernError != nil {
		return res, fmt.Errorf("bulk insert: %w", err)
	}
	return res, nil
}

func (s *Store) UpdatePartial(ctx context.Context, id string, patch index.Patch, opts index.UpdateOptions) error {
	ctx, cancel := index.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tags := patch.Tags
	if tags == nil {
		tags = []string{}
	}
	filter := bson.M{"_id": id}
	if opts.ExpectedVersion > 0 {
		filter["version"] = opts.ExpectedVersion
	}
	update := bson.M{
		"$set": bson.M{"tags": tags},
		"$inc": bson.M{"version": 1},
	}

	coll := s.coll
	if opts.WaitForRefresh {
		coll = s.majority
	}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return model.WrapError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the record is gone or the version moved on.
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return model.WrapError(err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return model.ErrConflict
}

func nameFilter(text string) bson.M {
	return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}
}

func (s *Store) SearchByName(ctx context.Context, text string, offset, limit int) ([]*model.FileRecord, error) {
	out := []*model.FileRecord{}
	if limit <= 0 {
		return out, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	if deadline, ok := ctx.Deadline(); ok {
		opts.SetMaxTime(timeUntil(deadline))
	}

	cursor, err := s.coll.Find(ctx, nameFilter(text), opts)
	if err != nil {
		return nil, model.WrapError(err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc fileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.record())
	}
	if err := cursor.Err(); err != nil {
		return nil, model.WrapError(err)
	}
	return out, nil
}

// EnsureIndexes creates the name index used by substring search ordering.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Close(ctx)
}
