package snapshot

import (
	"context"
	"os"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty endpoint",
			config:  Config{Endpoint: "", Bucket: "test"},
			wantErr: true,
		},
		{
			name:    "empty bucket",
			config:  Config{Endpoint: "localhost:9000", Bucket: ""},
			wantErr: true,
		},
		{
			name: "valid config",
			config: Config{
				Endpoint:        "localhost:9000",
				Bucket:          "test",
				AccessKeyID:     "minioadmin",
				SecretAccessKey: "minioadmin",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	got := objectName("alice", "3f58a1bc92d04e71")
	want := "snapshots/alice/3f58a1bc92d04e71.html"
	if got != want {
		t.Errorf("objectName() = %q, want %q", got, want)
	}
}

// TestIntegration_SnapshotOperations tests against a live MinIO.
// Skip if MinIO is not running.
func TestIntegration_SnapshotOperations(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	client, err := New(Config{
		Endpoint:        endpoint,
		Bucket:          "linkstash-test",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	if err != nil {
		t.Skipf("Skipping: %v", err)
	}

	ctx := context.Background()
	if err := client.EnsureBucket(ctx); err != nil {
		t.Skipf("Skipping: MinIO not available: %v", err)
	}

	const html = "<html><body>archived page</body></html>"
	if err := client.Put(ctx, "alice", "test-bookmark", html); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := client.Get(ctx, "alice", "test-bookmark")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != html {
		t.Errorf("Get() = %q, want %q", got, html)
	}

	if err := client.Delete(ctx, "alice", "test-bookmark"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := client.Get(ctx, "alice", "test-bookmark"); err == nil {
		t.Error("Get() after Delete() should fail")
	}
}
