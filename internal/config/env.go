package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvDSN names the environment variable holding the archive DSN.
const EnvDSN = "APPTSIM_DB_DSN"

// LoadEnv loads variables from the given .env files without overriding
// values already present in the environment. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ResolveDSN picks the archive location: an explicit flag wins, then
// APPTSIM_DB_DSN, then the TOML [store] dsn, then the XDG default path.
func ResolveDSN(flagValue string, file StoreConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvDSN); v != "" {
		return v
	}
	if file.DSN != nil && *file.DSN != "" {
		return *file.DSN
	}
	return DefaultDBPath()
}
