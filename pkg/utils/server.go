package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const serverIDFile = ".server_id"

// GetPersistentServerID names this console instance on the shared websocket
// channel. An explicit override wins, then the id stored under storagePath,
// then the hostname. A fresh id is generated and stored as a last resort.
func GetPersistentServerID(override, storagePath string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(storagePath, serverIDFile)
	if data, err := os.ReadFile(idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	if host, err := os.Hostname(); err == nil && host != "localhost" {
		if clean := keySafe(host); clean != "" {
			return "azc-" + clean
		}
	}

	id := "azc-" + uuid.NewString()[:8]
	_ = os.MkdirAll(storagePath, 0755)
	_ = os.WriteFile(idFile, []byte(id), 0644)
	return id
}

func keySafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, s)
}
