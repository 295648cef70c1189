package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
)

type fakeStager struct {
	mu       sync.Mutex
	staged   []string
	failKeys map[string]bool
}

func (f *fakeStager) Stage(ctx context.Context, key string, data []byte, contentType string) (*types.StagedObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return nil, errors.New("connection reset")
	}
	f.staged = append(f.staged, key)
	return &types.StagedObject{Key: key, Size: int64(len(data)), UploadedAt: time.Now()}, nil
}

func (f *fakeStager) Unstage(ctx context.Context, key string) {}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := io.WriteString(w, data); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func buildOrderedZip(t *testing.T, names []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		io.WriteString(w, "img")
	}
	zw.Close()
	return buf.Bytes()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func TestExpandFiltersAndOrdersEntries(t *testing.T) {
	names := []string{
		"frames/001.png",
		"frames/002.png",
		"frames/003.jpg",
		"frames/004.jpeg",
		"frames/005.png",
		"frames/006.png",
		"frames/007.webp",
		"frames/008.png",
		"frames/009.png",
		"frames/010.png",
		"frames/readme.txt",
		"frames/manifest.json",
		"__MACOSX/frames/._001.png",
		"frames/",
	}

	stager := &fakeStager{}
	ex := NewExpander(stager, []string{".jpg", ".jpeg", ".png", ".webp"}, testLogger())

	images, err := ex.Expand(context.Background(), buildOrderedZip(t, names), "animations/flower_showers/set1")
	if err != nil {
		t.Fatalf("unexpected expand error: %v", err)
	}

	if len(images) != 10 {
		t.Fatalf("expected 10 accepted images, got %d", len(images))
	}
	for i, img := range images {
		if img.Order != i+1 {
			t.Errorf("image %d has order %d, want %d", i, img.Order, i+1)
		}
		wantPrefix := fmt.Sprintf("animations/flower_showers/set1/%03d_", i+1)
		if !strings.HasPrefix(img.Key, wantPrefix) {
			t.Errorf("image key %q missing prefix %q", img.Key, wantPrefix)
		}
	}
}

func TestExpandSkipsDotfilesAndResourceForks(t *testing.T) {
	data := buildZip(t, map[string]string{
		"set/.hidden.png":          "x",
		"__MACOSX/set/._001.png":   "x",
		"set/.DS_Store":            "x",
		"set/visible.png":          "x",
		"set/nested/.thumbs/a.png": "x",
	})

	stager := &fakeStager{}
	ex := NewExpander(stager, []string{".png"}, testLogger())

	images, err := ex.Expand(context.Background(), data, "sets/p")
	if err != nil {
		t.Fatalf("unexpected expand error: %v", err)
	}
	if len(images) != 1 || images[0].Filename != "visible.png" {
		t.Errorf("expected only visible.png accepted, got %+v", images)
	}
}

func TestExpandRejectsCorruptArchive(t *testing.T) {
	stager := &fakeStager{}
	ex := NewExpander(stager, []string{".png"}, testLogger())

	_, err := ex.Expand(context.Background(), []byte("definitely not a zip"), "sets/p")

	var ue *upload.Error
	if !errors.As(err, &ue) || ue.Kind != upload.KindArchiveOpen {
		t.Fatalf("expected archive-open error, got %v", err)
	}
	if len(stager.staged) != 0 {
		t.Errorf("nothing should be staged for a corrupt archive, got %v", stager.staged)
	}
}

func TestExpandSkipsFailedUploads(t *testing.T) {
	data := buildOrderedZip(t, []string{"a.png", "b.png", "c.png"})

	stager := &fakeStager{failKeys: map[string]bool{"sets/p/002_b.png": true}}
	ex := NewExpander(stager, []string{".png"}, testLogger())

	images, err := ex.Expand(context.Background(), data, "sets/p")
	if err != nil {
		t.Fatalf("per-entry upload failures must not fail the expansion: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 staged images, got %d", len(images))
	}
	for _, img := range images {
		if img.Filename == "b.png" {
			t.Error("failed entry must not appear in the result")
		}
	}
}

func TestExpandEmptyArchiveIsNotAnError(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "x"})

	ex := NewExpander(&fakeStager{}, []string{".png"}, testLogger())
	images, err := ex.Expand(context.Background(), data, "sets/p")
	if err != nil {
		t.Fatalf("unexpected expand error: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("expected zero images, got %+v", images)
	}
}
