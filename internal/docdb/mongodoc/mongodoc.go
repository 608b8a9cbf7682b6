package mongodoc

import (
	"context"
	"github.com/denismitr/docshift/docdb"
	"github.com/denismitr/docshift/internal/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const namespaceExists = 48

var ErrNoDatabase = errors.New("database name is missing in the connection string")

// Handle maps tables to MongoDB collections of a single database
type Handle struct {
	client *mongo.Client
	db     *mongo.Database
	lg     logger.Logger
}

var _ docdb.Handle = (*Handle)(nil)
var _ docdb.Pinger = (*Handle)(nil)
var _ docdb.Closer = (*Handle)(nil)

func New(client *mongo.Client, database string, lg logger.Logger) *Handle {
	if lg == nil {
		lg = logger.NullLogger{}
	}

	return &Handle{client: client, db: client.Database(database), lg: lg}
}

// Open connects to the database named in the path of a mongodb:// uri
func Open(ctx context.Context, uri string, lg logger.Logger) (*Handle, error) {
	client, database, err := Connect(ctx, uri)
	if err != nil {
		return nil, err
	}

	return New(client, database, lg), nil
}

// Connect creates a client for uri and returns the database named in its path
func Connect(ctx context.Context, uri string) (*mongo.Client, string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, "", errors.Wrap(err, "invalid mongodb connection string")
	}

	if cs.Database == "" {
		return nil, "", ErrNoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, "", errors.Wrap(err, "could not connect to mongodb")
	}

	return client, cs.Database, nil
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}

func (h *Handle) Close() error {
	return h.client.Disconnect(context.Background())
}

func (h *Handle) ListTables(ctx context.Context) ([]string, error) {
	names, err := h.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "could not list collections")
	}

	return names, nil
}

func (h *Handle) CreateTable(ctx context.Context, name string) error {
	if err := docdb.ValidateIdentifier(name); err != nil {
		return err
	}

	h.lg.Debugf("creating collection %s", name)

	if err := h.db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExists(err) {
			return errors.Wrapf(docdb.ErrTableExists, "[%s]", name)
		}

		return errors.Wrapf(err, "could not create collection %s", name)
	}

	return nil
}

// CreateIndex creates an ascending index named after the field. MongoDB
// accepts identical index definitions silently so existing ones are looked up first.
func (h *Handle) CreateIndex(ctx context.Context, table, field string) error {
	if err := docdb.ValidateIdentifier(field); err != nil {
		return err
	}

	exists, err := h.hasIndex(ctx, table, indexName(field))
	if err != nil {
		return err
	}

	if exists {
		return errors.Wrapf(docdb.ErrIndexExists, "[%s.%s]", table, field)
	}

	h.lg.Debugf("creating index %s on %s", indexName(field), table)

	_, err = h.db.Collection(table).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetName(indexName(field)),
	})
	if err != nil {
		return errors.Wrapf(err, "could not create index on %s.%s", table, field)
	}

	return nil
}

// WaitForIndex returns once the collection exists, index builds are
// finished when createIndexes returns.
func (h *Handle) WaitForIndex(ctx context.Context, table string) error {
	tables, err := h.ListTables(ctx)
	if err != nil {
		return err
	}

	if !docdb.ContainsTable(tables, table) {
		return errors.Wrapf(docdb.ErrTableNotFound, "[%s]", table)
	}

	return nil
}

func (h *Handle) Find(ctx context.Context, table string, q docdb.Query) ([]docdb.Document, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}})
	if q.OrderBy != "" {
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: sortValue(q)}})
	}

	cur, err := h.db.Collection(table).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read from %s", table)
	}

	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "could not decode documents of %s", table)
	}

	result := make([]docdb.Document, 0, len(rows))
	for i := range rows {
		result = append(result, docdb.Document(rows[i]))
	}

	return result, nil
}

func (h *Handle) Insert(ctx context.Context, table string, doc docdb.Document) error {
	if _, err := h.db.Collection(table).InsertOne(ctx, bson.M(doc)); err != nil {
		return errors.Wrapf(err, "could not insert into %s", table)
	}

	return nil
}

func (h *Handle) DeleteAll(ctx context.Context, table string) error {
	if _, err := h.db.Collection(table).DeleteMany(ctx, bson.D{}); err != nil {
		return errors.Wrapf(err, "could not delete from %s", table)
	}

	return nil
}

func (h *Handle) hasIndex(ctx context.Context, table, name string) (bool, error) {
	specs, err := h.db.Collection(table).Indexes().ListSpecifications(ctx)
	if err != nil {
		return false, errors.Wrapf(err, "could not list indexes of %s", table)
	}

	for _, spec := range specs {
		if spec.Name == name {
			return true, nil
		}
	}

	return false, nil
}

func indexName(field string) string {
	return field + "_1"
}

func sortValue(q docdb.Query) int {
	if q.Desc() {
		return -1
	}

	return 1
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == namespaceExists
	}

	return false
}
