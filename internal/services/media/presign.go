package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/devaalay/asset-service/internal/types"
)

// urlSigner is the single primitive the batch helpers need; it lets the
// degradation behavior be exercised without an object store.
type urlSigner interface {
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// SignObject issues a fresh read URL for the object and attaches it. A
// signing failure degrades this one object's URL to null; it never fails
// the surrounding batch.
func (s *Service) SignObject(ctx context.Context, obj *types.StagedObject) {
	signObject(ctx, s, s.DefaultTTL(), s.log, obj)
}

// SignImages issues read URLs for every image in the set, degrading
// individual failures to null.
func (s *Service) SignImages(ctx context.Context, images []types.ImageObject) {
	signImages(ctx, s, s.DefaultTTL(), s.log, images)
}

func signObject(ctx context.Context, signer urlSigner, ttl time.Duration, log *slog.Logger, obj *types.StagedObject) {
	if obj == nil || obj.Key == "" {
		return
	}

	url, err := signer.PresignedGetURL(ctx, obj.Key, ttl)
	if err != nil {
		log.Error("failed to sign read URL",
			slog.String("key", obj.Key), slog.String("error", err.Error()))
		obj.SignedURL = nil
		return
	}
	obj.SignedURL = &url
}

func signImages(ctx context.Context, signer urlSigner, ttl time.Duration, log *slog.Logger, images []types.ImageObject) {
	for i := range images {
		url, err := signer.PresignedGetURL(ctx, images[i].Key, ttl)
		if err != nil {
			log.Error("failed to sign read URL",
				slog.String("key", images[i].Key), slog.String("error", err.Error()))
			images[i].SignedURL = nil
			continue
		}
		images[i].SignedURL = &url
	}
}
