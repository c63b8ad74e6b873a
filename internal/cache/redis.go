package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session mirror keys: session:<kind>:<user_id>
const sessionMirrorKeyFmt = "session:%s:%d"

// Mirror entries outlive the longest allowed shift so a reload mid-shift
// always finds them; the projection remains the source of truth regardless.
const sessionMirrorTTL = 24 * time.Hour

var client *redis.Client

// Init initializes the Redis connection
func Init() error {
	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

// hashCredentials creates a hash of email+password for cache key
func hashCredentials(email, password string) string {
	h := sha256.New()
	h.Write([]byte(email + ":" + password))
	return "auth:" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetCachedAuth checks if credentials are cached and valid
func GetCachedAuth(ctx context.Context, email, password string) (int64, bool) {
	if client == nil {
		return 0, false
	}
	key := hashCredentials(email, password)
	userID, err := client.Get(ctx, key).Int64()
	if err != nil {
		return 0, false
	}
	return userID, true
}

// CacheAuth caches valid credentials for 15 minutes
func CacheAuth(ctx context.Context, email, password string, userID int64) {
	if client == nil {
		return
	}
	key := hashCredentials(email, password)
	client.Set(ctx, key, userID, 15*time.Minute)
}

// InvalidateAuth removes cached auth for a user (on password change/logout)
func InvalidateAuth(ctx context.Context, email, password string) {
	if client == nil {
		return
	}
	key := hashCredentials(email, password)
	client.Del(ctx, key)
}

// ============================================
// Active Session Mirror
// ============================================
//
// The active-session projection is mirrored here so a client reload can
// resume its session without waiting for a log scan. The mirror is advisory:
// it is written through after every successful command and on every
// projection read, and the log-derived projection always wins on
// disagreement.

// StoreSessionMirror writes the serialized active-session view for a user.
func StoreSessionMirror(ctx context.Context, kind string, userID int, data []byte) {
	if client == nil {
		return
	}
	key := fmt.Sprintf(sessionMirrorKeyFmt, kind, userID)
	client.Set(ctx, key, data, sessionMirrorTTL)
}

// GetSessionMirror returns the mirrored active-session view if present.
func GetSessionMirror(ctx context.Context, kind string, userID int) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	key := fmt.Sprintf(sessionMirrorKeyFmt, kind, userID)
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// InvalidateSessionMirror removes the mirrored view after a session closes.
func InvalidateSessionMirror(ctx context.Context, kind string, userID int) {
	if client == nil {
		return
	}
	client.Del(ctx, fmt.Sprintf(sessionMirrorKeyFmt, kind, userID))
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
