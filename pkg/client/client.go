package client

import (
	"context"
	"servicely/pkg/logger"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const disconnectTimeout = 10 * time.Second

// Client owns the long-lived connections shared by a binary.
type Client struct {
	Mongo *mongo.Client
}

func NewClient() *Client {
	return &Client{}
}

type MongoOptions struct {
	URI            string
	AppName        string
	ConnectTimeout time.Duration
}

func (o MongoOptions) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(o.URI).
		SetRetryWrites(true).
		SetRetryReads(true).
		SetServerSelectionTimeout(o.ConnectTimeout)
	if o.AppName != "" {
		opts.SetAppName(o.AppName)
	}
	return opts
}

// SetMongo connects and pings the primary. A binary cannot do anything
// useful without the database, so failure is fatal.
func (c *Client) SetMongo(log *logger.Logger, o MongoOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), o.ConnectTimeout)
	defer cancel()

	conn, err := mongo.Connect(ctx, o.clientOptions())
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	if err := conn.Ping(ctx, readpref.Primary()); err != nil {
		_ = conn.Disconnect(context.Background())
		log.Fatal("MongoDB primary unreachable", "error", err)
	}

	log.Info("Connected to MongoDB", "app_name", o.AppName)
	c.Mongo = conn
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err)
		return
	}
	c.Mongo = nil
	log.Info("Disconnected from MongoDB")
}
