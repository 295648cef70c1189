package animations

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/archive"
	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
)

type fakeStore struct {
	mu         sync.Mutex
	animations []*types.Animation
	idols      map[primitive.ObjectID]*types.GodIdol
}

func newFakeStore() *fakeStore {
	return &fakeStore{idols: make(map[primitive.ObjectID]*types.GodIdol)}
}

func (f *fakeStore) CreateAnimation(ctx context.Context, a *types.Animation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.TotalImages = len(a.Images)
	f.animations = append(f.animations, a)
	return nil
}

func (f *fakeStore) AnimationByID(ctx context.Context, id primitive.ObjectID) (*types.Animation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.animations {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) AnimationByIdolCategory(ctx context.Context, idolID primitive.ObjectID, category string, excludeID *primitive.ObjectID) (*types.Animation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.animations {
		if a.GodIdolID != nil && *a.GodIdolID == idolID && a.Category == category {
			if excludeID != nil && a.ID == *excludeID {
				continue
			}
			return a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ImageSetByCategory(ctx context.Context, category string) (*types.Animation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.animations {
		if a.GodIdolID == nil && a.Category == category && len(a.Images) > 0 {
			return a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListAnimations(ctx context.Context) ([]types.Animation, error) {
	return nil, nil
}

func (f *fakeStore) ListAnimationsByIdol(ctx context.Context, idolID primitive.ObjectID) ([]types.Animation, error) {
	return nil, nil
}

func (f *fakeStore) ListAnimationsByCategory(ctx context.Context, category string) ([]types.Animation, error) {
	return nil, nil
}

func (f *fakeStore) UpdateAnimation(ctx context.Context, a *types.Animation) error { return nil }

func (f *fakeStore) DeleteAnimation(ctx context.Context, id primitive.ObjectID) error { return nil }

func (f *fakeStore) GodIdolByID(ctx context.Context, id primitive.ObjectID) (*types.GodIdol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idol, ok := f.idols[id]; ok {
		return idol, nil
	}
	return nil, storage.ErrNotFound
}

type fakeMedia struct {
	mu       sync.Mutex
	staged   []string
	unstaged []string
}

func (f *fakeMedia) Stage(ctx context.Context, key string, data []byte, contentType string) (*types.StagedObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = append(f.staged, key)
	return &types.StagedObject{Key: key, Size: int64(len(data)), UploadedAt: time.Now()}, nil
}

func (f *fakeMedia) Unstage(ctx context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unstaged = append(f.unstaged, key)
}

func (f *fakeMedia) SignObject(ctx context.Context, obj *types.StagedObject) {}

func (f *fakeMedia) SignImages(ctx context.Context, images []types.ImageObject) {}

func (f *fakeMedia) MaxFileSize() int64 { return 10 << 20 }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func zipBytes(t *testing.T, names []string) []byte {
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

func zipRequest(t *testing.T, fields map[string]string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range fields {
		mw.WriteField(name, value)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="zipFile"; filename="frames.zip"`)
	h.Set("Content-Type", "application/zip")
	fw, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("failed to create zip part: %v", err)
	}
	fw.Write(payload)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/animations/upload-zip", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadZipCreatesOrderedImageSet(t *testing.T) {
	store := newFakeStore()
	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())
	ex := archive.NewExpander(media, []string{".png"}, testLogger())

	payload := zipBytes(t, []string{"001.png", "002.png", "003.png", "notes.txt"})
	fields := map[string]string{"category": "flower_showers", "title": "Petal Rain"}

	rec := httptest.NewRecorder()
	UploadZip(co, store, media, ex)(rec, zipRequest(t, fields, payload))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.animations) != 1 {
		t.Fatalf("expected one animation created, got %d", len(store.animations))
	}

	anim := store.animations[0]
	if len(anim.Images) != 3 || anim.TotalImages != 3 {
		t.Errorf("expected 3 images, got %d (totalImages=%d)", len(anim.Images), anim.TotalImages)
	}
	for i, img := range anim.Images {
		if img.Order != i+1 {
			t.Errorf("image %d has order %d, want %d", i, img.Order, i+1)
		}
	}
	if len(media.unstaged) != 0 {
		t.Errorf("successful upload must not unstage, got %v", media.unstaged)
	}
}

func TestUploadZipConflictRollsBackEveryStagedImage(t *testing.T) {
	store := newFakeStore()
	existing := primitive.NewObjectID()
	store.animations = append(store.animations, &types.Animation{
		ID:       existing,
		Category: "flower_showers",
		Images:   []types.ImageObject{{Key: "sets/old/001_a.png", Order: 1}},
	})

	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())
	ex := archive.NewExpander(media, []string{".png"}, testLogger())

	payload := zipBytes(t, []string{"001.png", "002.png"})
	fields := map[string]string{"category": "flower_showers", "title": "Petal Rain"}

	rec := httptest.NewRecorder()
	UploadZip(co, store, media, ex)(rec, zipRequest(t, fields, payload))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(media.staged) != 2 {
		t.Fatalf("expected 2 images staged before the conflict, got %v", media.staged)
	}
	if len(media.unstaged) != 2 {
		t.Errorf("every staged image must be rolled back, unstaged=%v", media.unstaged)
	}
	if len(store.animations) != 1 {
		t.Errorf("conflicting upload must not create a record")
	}
}

func TestUploadZipRejectsEmptyArchive(t *testing.T) {
	store := newFakeStore()
	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())
	ex := archive.NewExpander(media, []string{".png"}, testLogger())

	payload := zipBytes(t, []string{"notes.txt", "__MACOSX/._001.png"})
	fields := map[string]string{"category": "lighting_lamp", "title": "Diya"}

	rec := httptest.NewRecorder()
	UploadZip(co, store, media, ex)(rec, zipRequest(t, fields, payload))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for archive with no usable images, got %d", rec.Code)
	}
	if len(store.animations) != 0 {
		t.Errorf("empty archive must not create a record")
	}
}

func TestUploadZipRejectsCorruptArchive(t *testing.T) {
	store := newFakeStore()
	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())
	ex := archive.NewExpander(media, []string{".png"}, testLogger())

	fields := map[string]string{"category": "lighting_lamp", "title": "Diya"}

	rec := httptest.NewRecorder()
	UploadZip(co, store, media, ex)(rec, zipRequest(t, fields, []byte("not a zip")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for corrupt archive, got %d", rec.Code)
	}
	if len(media.staged) != 0 {
		t.Errorf("nothing should be staged for a corrupt archive, got %v", media.staged)
	}
}

func TestCreateAnimationRejectsUnknownIdol(t *testing.T) {
	store := newFakeStore()
	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("godIdol", primitive.NewObjectID().Hex())
	mw.WriteField("category", "pouring_water_milk")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="video"; filename="aarti.mp4"`)
	h.Set("Content-Type", "video/mp4")
	fw, _ := mw.CreatePart(h)
	fw.Write([]byte("video bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/animations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	Create(co, store, media)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown god idol, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(media.staged) != 1 || len(media.unstaged) != 1 {
		t.Errorf("staged video must be rolled back: staged=%v unstaged=%v", media.staged, media.unstaged)
	}
}
