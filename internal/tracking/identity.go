package tracking

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// Identity holds the anonymous ids attached to report telemetry.
type Identity struct {
	PosthogAPIKey        string  `json:"posthog_api_key"`
	AnonymousUserID      string  `json:"report_generator_anonymous_user_id"`
	AnonymousWarehouseID *string `json:"anonymous_warehouse_id"`
}

// LoadOrCreateUserID returns the anonymous user id persisted at path,
// creating and persisting a new one when the file is missing or invalid.
// An empty path yields a fresh, unpersisted id.
func LoadOrCreateUserID(path string) (string, error) {
	if path == "" {
		return uuid.NewString(), nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if id, parseErr := uuid.Parse(strings.TrimSpace(string(data))); parseErr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read user id file: %w", err)
	}

	id := uuid.NewString()
	if err := atomic.WriteFile(path, bytes.NewBufferString(id+"\n")); err != nil {
		return id, fmt.Errorf("failed to persist user id: %w", err)
	}
	return id, nil
}

// WarehouseID derives a stable anonymous id from the warehouse location,
// or nil when no warehouse is configured.
func WarehouseID(host, database string) *string {
	if host == "" {
		return nil
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mysql://"+strings.ToLower(host)+"/"+database)).String()
	return &id
}
