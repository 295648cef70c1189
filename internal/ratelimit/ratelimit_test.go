package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, cleanup
}

func TestTokenBucket_Allow(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	// 5 uploads per minute
	bucket := NewTokenBucket(redisClient, 5, 5)

	ctx := context.Background()
	adminID := "admin_1"
	action := "upload"

	for i := 0; i < 5; i++ {
		allowed, err := bucket.Allow(ctx, adminID, action)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	allowed, err := bucket.Allow(ctx, adminID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request to be denied after limit reached")
	}

	remaining, err := bucket.GetRemaining(ctx, adminID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("Expected 0 remaining tokens, got %d", remaining)
	}
}

func TestTokenBucket_PerAdminIsolation(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 1, 1)
	ctx := context.Background()

	allowed, err := bucket.Allow(ctx, "admin_a", "upload")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected first admin's request to be allowed")
	}

	// Exhausting one admin's bucket must not affect another's.
	allowed, err = bucket.Allow(ctx, "admin_b", "upload")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Fatal("Expected second admin's request to be allowed")
	}
}

func TestTokenBucket_PerActionIsolation(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 1, 1)
	ctx := context.Background()

	if allowed, _ := bucket.Allow(ctx, "admin_1", "upload"); !allowed {
		t.Fatal("Expected upload to be allowed")
	}
	if allowed, _ := bucket.Allow(ctx, "admin_1", "upload"); allowed {
		t.Fatal("Expected second upload to be denied")
	}
	if allowed, _ := bucket.Allow(ctx, "admin_1", "upload_zip"); !allowed {
		t.Fatal("Expected zip upload to use its own bucket")
	}
}
