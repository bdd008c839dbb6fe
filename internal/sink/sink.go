// Package sink delivers a finished report to chat and object storage
// destinations.
package sink

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
)

// Sink delivers a local file to one destination.
type Sink interface {
	// Name identifies the sink in logs and execution properties.
	Name() string
	// Send uploads localPath. remotePath overrides the destination name;
	// when empty the local base name is used.
	Send(ctx context.Context, localPath, remotePath string) error
}

// objectKey returns the destination name of a delivery.
func objectKey(localPath, remotePath string) string {
	if remotePath = strings.TrimLeft(remotePath, "/"); remotePath != "" {
		return remotePath
	}
	return filepath.Base(localPath)
}

func contentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
