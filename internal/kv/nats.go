package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultNATSBucket is the bucket used when none is configured.
const DefaultNATSBucket = "todo"

// NATS stores values in a JetStream key-value bucket. The bucket keeps one
// revision per key since every value is a full collection.
type NATS struct {
	conn     *nats.Conn
	bucket   jetstream.KeyValue
	embedded *server.Server
}

// NewNATS connects to url and opens (or creates) the bucket.
func NewNATS(ctx context.Context, url, bucket string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("todo"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	n, err := newNATS(ctx, conn, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return n, nil
}

// NewEmbeddedNATS starts an in-process NATS server with JetStream storing
// under storeDir, connects to it and opens the bucket. Close shuts the
// server down.
func NewEmbeddedNATS(ctx context.Context, storeDir, bucket string) (*NATS, error) {
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1, // Random available port
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded NATS server failed to start")
	}

	conn, err := nats.Connect(ns.ClientURL(), nats.Name("todo"))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("connect to embedded NATS: %w", err)
	}

	n, err := newNATS(ctx, conn, bucket)
	if err != nil {
		conn.Close()
		ns.Shutdown()
		return nil, err
	}
	n.embedded = ns
	return n, nil
}

func newNATS(ctx context.Context, conn *nats.Conn, bucket string) (*NATS, error) {
	if bucket == "" {
		bucket = DefaultNATSBucket
	}
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "todo task collection",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &NATS{conn: conn, bucket: kv}, nil
}

// Get returns the latest value under key.
func (n *NATS) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	entry, err := n.bucket.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// Set puts a new revision of key.
func (n *NATS) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := n.bucket.Put(ctx, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Close closes the connection and, for an embedded server, shuts it down.
func (n *NATS) Close() error {
	var err error
	if n.conn != nil {
		if ferr := n.conn.Flush(); ferr != nil && !errors.Is(ferr, nats.ErrConnectionClosed) {
			err = fmt.Errorf("flush NATS connection: %w", ferr)
		}
		n.conn.Close()
	}
	if n.embedded != nil {
		n.embedded.Shutdown()
		n.embedded.WaitForShutdown()
	}
	return err
}
