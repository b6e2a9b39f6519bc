// Package positions counts trades that are still open.
package positions

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/franco-bianco/poolsniper/config"
)

// Counter reports how many positions are open.
type Counter interface {
	CountOpen(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Static always reports the same count. Used when no store is configured.
type Static int64

func (s Static) CountOpen(context.Context) (int64, error) { return int64(s), nil }
func (Static) Close(context.Context) error                { return nil }

type documentCounter interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// MongoCounter counts documents that have no closed_at field.
type MongoCounter struct {
	client *mongo.Client
	coll   documentCounter
}

var openFilter = bson.M{"closed_at": bson.M{"$exists": false}}

func NewMongoCounter(ctx context.Context, uri, database, collection string) (*MongoCounter, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoCounter{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (m *MongoCounter) CountOpen(ctx context.Context) (int64, error) {
	n, err := m.coll.CountDocuments(ctx, openFilter)
	if err != nil {
		return 0, fmt.Errorf("count open positions: %w", err)
	}
	return n, nil
}

func (m *MongoCounter) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const countOpenSQL = `SELECT count(*) FROM positions WHERE closed_at IS NULL`

// PostgresCounter counts rows of the positions table that are not closed.
type PostgresCounter struct {
	pool *pgxpool.Pool
	db   rowQuerier
}

func NewPostgresCounter(ctx context.Context, dsn string) (*PostgresCounter, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresCounter{pool: pool, db: pool}, nil
}

func (p *PostgresCounter) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, countOpenSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open positions: %w", err)
	}
	return n, nil
}

func (p *PostgresCounter) Close(context.Context) error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// New opens the counter selected by cfg.Backend.
func New(ctx context.Context, cfg config.PositionsConfig) (Counter, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		return NewMongoCounter(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.BackendPostgres:
		return NewPostgresCounter(ctx, cfg.DatabaseURL)
	case config.BackendNone, "":
		return Static(0), nil
	}
	return nil, fmt.Errorf("unknown positions backend %q", cfg.Backend)
}
