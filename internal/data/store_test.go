package data

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/itsmostafa07/groupspeak/internal/db"
)

// testClient connects to the MongoDB named by MONGODB_URI, or skips the
// test when it is unset.
func testClient(t *testing.T) *db.Client {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := db.New(ctx, uri)
	if err != nil {
		t.Fatalf("connect to MongoDB: %v", err)
	}
	t.Cleanup(func() { client.Close(context.Background()) })

	if err := client.CreateIndexes(ctx); err != nil {
		t.Fatalf("create indexes: %v", err)
	}
	return client
}

// uniqueName avoids collisions when the test database is shared.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
