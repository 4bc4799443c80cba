package repomanager

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoRepositoryManager holds one long-lived *mongo.Client shared by all
// requests.
type MongoRepositoryManager struct {
	client *mongo.Client
	db     *mongo.Database
	users  *users.MongoRepository
}

// NewMongoRepositoryManager configures a client for uri and selects dbName.
// The driver connects in the background; use Ping to wait for it.
func NewMongoRepositoryManager(uri, dbName string) (*MongoRepositoryManager, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, oops.Code("STORE_OPEN").With("driver", "mongo").Wrap(err)
	}

	db := client.Database(dbName)

	return &MongoRepositoryManager{
		client: client,
		db:     db,
		users:  users.NewMongoRepository(db.Collection(users.CollectionName)),
	}, nil
}

// Users returns the MongoDB user store.
func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations creates the unique indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := users.EnsureIndexes(ctx, m.db.Collection(users.CollectionName)); err != nil {
		return oops.Code("STORE_MIGRATE").Wrap(err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return repoerr.New(repoerr.ConnectionFailure, "store.ping", err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
