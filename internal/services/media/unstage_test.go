package media

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func objectStoreStub(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *minio.Client) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("test", "test", ""),
		Secure: false,
		Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return srv, client
}

func TestUnstageToleratesMissingKey(t *testing.T) {
	deletes := 0
	_, client := objectStoreStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusOK)
			return
		}
		deletes++
		if deletes == 1 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>splash/intro.mp4</Key><BucketName>assets</BucketName></Error>`)
	})

	var logs bytes.Buffer
	svc := &Service{
		client:     client,
		bucketName: "assets",
		log:        slog.New(slog.NewTextHandler(&logs, nil)),
	}

	// Compensation paths can race and both delete the same key; the second
	// delete lands on an absent object and must pass silently.
	svc.Unstage(context.Background(), "splash/intro.mp4")
	svc.Unstage(context.Background(), "splash/intro.mp4")

	if deletes != 2 {
		t.Fatalf("expected two delete requests, got %d", deletes)
	}
	if logs.Len() != 0 {
		t.Errorf("deleting an absent key must not log, got %q", logs.String())
	}
}

func TestUnstageLogsOtherFailuresWithoutEscalating(t *testing.T) {
	_, client := objectStoreStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied.</Message><Key>splash/intro.mp4</Key><BucketName>assets</BucketName></Error>`)
	})

	var logs bytes.Buffer
	svc := &Service{
		client:     client,
		bucketName: "assets",
		log:        slog.New(slog.NewTextHandler(&logs, nil)),
	}

	svc.Unstage(context.Background(), "splash/intro.mp4")

	if !strings.Contains(logs.String(), "failed to unstage object") {
		t.Errorf("denied delete must be logged, got %q", logs.String())
	}
}
