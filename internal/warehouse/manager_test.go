package warehouse

import (
	"context"
	"testing"

	"github.com/dbsmedya/goreport/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.WarehouseConfig
		expected string
	}{
		{
			name: "basic DSN",
			cfg: &config.WarehouseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "reporter",
				Password: "secret",
				Database: "analytics",
				TLS:      "preferred",
			},
			expected: "reporter:secret@tcp(localhost:3306)/analytics?parseTime=true&loc=UTC&tls=preferred",
		},
		{
			name: "DSN without database",
			cfg: &config.WarehouseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "reporter",
				Password: "secret",
			},
			expected: "reporter:secret@tcp(localhost:3306)/?parseTime=true&loc=UTC&tls=preferred",
		},
		{
			name: "DSN with TLS disabled",
			cfg: &config.WarehouseConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "reporter",
				Password: "secret",
				Database: "analytics",
				TLS:      "disable",
			},
			expected: "reporter:secret@tcp(localhost:3306)/analytics?parseTime=true&loc=UTC&tls=false",
		},
		{
			name: "DSN with TLS required and custom port",
			cfg: &config.WarehouseConfig{
				Host:     "warehouse.internal",
				Port:     3307,
				User:     "admin",
				Password: "p@ssw0rd!",
				Database: "dw",
				TLS:      "required",
			},
			expected: "admin:p@ssw0rd!@tcp(warehouse.internal:3307)/dw?parseTime=true&loc=UTC&tls=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildDSN(tt.cfg)
			if result != tt.expected {
				t.Errorf("BuildDSN() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestNewManager(t *testing.T) {
	cfg := &config.WarehouseConfig{Host: "localhost", Port: 3306}

	manager := NewManager(cfg)
	if manager == nil {
		t.Fatal("NewManager() returned nil")
	}
	if manager.config != cfg {
		t.Error("manager.config should point to provided config")
	}
	if manager.DB != nil {
		t.Error("DB should be nil before Connect()")
	}
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	manager := NewManager(&config.WarehouseConfig{Host: "localhost"})

	if err := manager.Close(); err != nil {
		t.Errorf("Close() returned error for unconnected manager: %v", err)
	}
}

func TestManagerPingWithoutConnect(t *testing.T) {
	manager := NewManager(&config.WarehouseConfig{Host: "localhost"})

	if err := manager.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail for unconnected manager")
	}
}

func TestConnectHonorsCancelledContext(t *testing.T) {
	manager := NewManager(&config.WarehouseConfig{Host: "127.0.0.1", Port: 1, User: "nobody"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := manager.Connect(ctx); err == nil {
		t.Error("Connect() should fail with a cancelled context")
	}
	if manager.DB != nil {
		t.Error("DB should stay nil after failed Connect()")
	}
}
