package media

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/devaalay/asset-service/internal/types"
)

type fakeSigner struct {
	failKeys map[string]bool
}

func (f *fakeSigner) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.failKeys[key] {
		return "", errors.New("signing backend unavailable")
	}
	return "https://store.example/" + key + "?sig=abc", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func TestSignObjectAttachesURL(t *testing.T) {
	obj := &types.StagedObject{Key: "videos/a.mp4"}
	signObject(context.Background(), &fakeSigner{}, time.Hour, testLogger(), obj)

	if obj.SignedURL == nil {
		t.Fatal("expected a signed URL")
	}
	if *obj.SignedURL != "https://store.example/videos/a.mp4?sig=abc" {
		t.Errorf("unexpected signed URL %q", *obj.SignedURL)
	}
}

func TestSignObjectDegradesToNullOnFailure(t *testing.T) {
	obj := &types.StagedObject{Key: "videos/a.mp4"}
	signer := &fakeSigner{failKeys: map[string]bool{"videos/a.mp4": true}}

	signObject(context.Background(), signer, time.Hour, testLogger(), obj)

	if obj.SignedURL != nil {
		t.Errorf("signing failure must leave SignedURL nil, got %q", *obj.SignedURL)
	}
}

func TestSignObjectToleratesNilAndEmpty(t *testing.T) {
	signObject(context.Background(), &fakeSigner{}, time.Hour, testLogger(), nil)

	obj := &types.StagedObject{}
	signObject(context.Background(), &fakeSigner{}, time.Hour, testLogger(), obj)
	if obj.SignedURL != nil {
		t.Error("object without a key must not get a signed URL")
	}
}

func TestSignImagesDegradesPerImage(t *testing.T) {
	images := []types.ImageObject{
		{Key: "sets/001_a.png"},
		{Key: "sets/002_b.png"},
		{Key: "sets/003_c.png"},
	}
	signer := &fakeSigner{failKeys: map[string]bool{"sets/002_b.png": true}}

	signImages(context.Background(), signer, time.Hour, testLogger(), images)

	if images[0].SignedURL == nil || images[2].SignedURL == nil {
		t.Error("signing failure of one image must not affect its siblings")
	}
	if images[1].SignedURL != nil {
		t.Errorf("failed image must degrade to null, got %q", *images[1].SignedURL)
	}
}
