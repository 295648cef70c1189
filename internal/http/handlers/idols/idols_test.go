package idols

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
)

type fakeStore struct {
	mu         sync.Mutex
	gods       map[primitive.ObjectID]bool
	idols      []*types.GodIdol
	animations []*types.Animation
	categories map[string]*types.AnimationCategory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		gods:       make(map[primitive.ObjectID]bool),
		categories: make(map[string]*types.AnimationCategory),
	}
}

func (f *fakeStore) CreateGodIdol(ctx context.Context, idol *types.GodIdol) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idol.ID = primitive.NewObjectID()
	f.idols = append(f.idols, idol)
	return nil
}

func (f *fakeStore) GodIdolByID(ctx context.Context, id primitive.ObjectID) (*types.GodIdol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.idols {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) GodIdolByGod(ctx context.Context, godID primitive.ObjectID) (*types.GodIdol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.idols {
		if i.GodID == godID {
			return i, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListGodIdols(ctx context.Context, activeOnly bool) ([]types.GodIdol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.GodIdol
	for _, i := range f.idols {
		if activeOnly && !i.IsActive {
			continue
		}
		out = append(out, *i)
	}
	return out, nil
}

func (f *fakeStore) UpdateGodIdol(ctx context.Context, idol *types.GodIdol) error { return nil }

func (f *fakeStore) DeleteGodIdol(ctx context.Context, id primitive.ObjectID) error { return nil }

func (f *fakeStore) GodExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gods[id], nil
}

func (f *fakeStore) CreateGodIdolWithAnimation(ctx context.Context, idol *types.GodIdol, anim *types.Animation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	idol.ID = primitive.NewObjectID()
	anim.ID = primitive.NewObjectID()
	idolID := idol.ID
	anim.GodIdolID = &idolID
	f.idols = append(f.idols, idol)
	f.animations = append(f.animations, anim)
	return nil
}

func (f *fakeStore) ListAnimationsByIdol(ctx context.Context, idolID primitive.ObjectID) ([]types.Animation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Animation
	for _, a := range f.animations {
		if a.GodIdolID != nil && *a.GodIdolID == idolID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) CategoryByName(ctx context.Context, name string) (*types.AnimationCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.categories[name]; ok {
		return c, nil
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

func (f *fakeMedia) MaxFileSize() int64 { return 1 << 20 }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func combinedRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range fields {
		mw.WriteField(name, value)
	}
	for _, part := range []string{"godIdolVideo", "animationVideo"} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+part+`"; filename="`+part+`.mp4"`)
		h.Set("Content-Type", "video/mp4")
		fw, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		fw.Write([]byte("video bytes"))
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/idols/with-animation", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateWithAnimationWritesBothRecords(t *testing.T) {
	store := newFakeStore()
	godID := primitive.NewObjectID()
	store.gods[godID] = true
	store.categories["flower_showers"] = &types.AnimationCategory{Name: "flower_showers"}
	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())

	rec := httptest.NewRecorder()
	CreateWithAnimation(co, store, media)(rec, combinedRequest(t, map[string]string{
		"godId":    godID.Hex(),
		"category": "flower_showers",
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.idols) != 1 || len(store.animations) != 1 {
		t.Fatalf("expected one idol and one animation, got %d and %d", len(store.idols), len(store.animations))
	}
	if got := store.animations[0].GodIdolID; got == nil || *got != store.idols[0].ID {
		t.Errorf("animation must reference the created idol")
	}
	if len(media.staged) != 2 {
		t.Errorf("expected two staged videos, got %v", media.staged)
	}
	if len(media.unstaged) != 0 {
		t.Errorf("successful create must not unstage, got %v", media.unstaged)
	}
}

func TestCreateWithAnimationRejectsUnknownCategoryRecord(t *testing.T) {
	store := newFakeStore()
	godID := primitive.NewObjectID()
	store.gods[godID] = true
	media := &fakeMedia{}
	co := upload.NewCoordinator(media, testLogger())

	rec := httptest.NewRecorder()
	CreateWithAnimation(co, store, media)(rec, combinedRequest(t, map[string]string{
		"godId":    godID.Hex(),
		"category": "flower_showers",
	}))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.idols) != 0 || len(store.animations) != 0 {
		t.Errorf("no records may be written when the category is unknown")
	}
	if len(media.staged) != 2 || len(media.unstaged) != 2 {
		t.Fatalf("both staged videos must be rolled back: staged=%v unstaged=%v", media.staged, media.unstaged)
	}
}
