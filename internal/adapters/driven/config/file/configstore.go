package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// driverEntry is the on-disk shape of one [drivers.<name>] table.
type driverEntry struct {
	Enabled     bool   `toml:"enabled"`
	APIKey      string `toml:"api_key,omitempty"`
	Timeout     string `toml:"timeout,omitempty"`
	MaxAttempts int    `toml:"max_attempts,omitempty"`
	Priority    int    `toml:"priority,omitempty"`
}

type configFile struct {
	Drivers map[string]driverEntry `toml:"drivers"`
}

// ConfigStore is a TOML-file implementation of driven.ConfigStore. Each
// driver gets a [drivers.<name>] table; timeouts are duration strings
// like "45s".
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a TOML-based config store. If configDir is
// empty, defaults to ~/.prospect/config.toml. A missing file is seeded
// with a commented template so users can see what to fill in.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".prospect")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{filePath: filepath.Join(configDir, "config.toml")}
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		if err := os.WriteFile(s.filePath, []byte(defaultConfig), 0600); err != nil {
			return nil, err
		}
		logger.Info("Created default config at %s", s.filePath)
	}
	return s, nil
}

// Load reads the configuration file and maps it to per-driver configs.
func (s *ConfigStore) Load() (map[string]domain.DriverConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return nil, err
	}

	configs := make(map[string]domain.DriverConfig, len(cf.Drivers))
	for name, entry := range cf.Drivers {
		cfg := domain.DriverConfig{
			Enabled:     entry.Enabled,
			Credential:  entry.APIKey,
			MaxAttempts: entry.MaxAttempts,
			Priority:    entry.Priority,
		}
		if entry.Timeout != "" {
			d, err := time.ParseDuration(entry.Timeout)
			if err != nil {
				return nil, fmt.Errorf("config: drivers.%s.timeout: %w", name, err)
			}
			cfg.Timeout = d
		}
		configs[name] = cfg
	}
	return configs, nil
}

// SetCredential stores a credential for the named driver and enables it.
// Setting a key for a driver you do not want running is not a workflow
// worth supporting.
func (s *ConfigStore) SetCredential(name, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.read()
	if err != nil {
		return err
	}
	if cf.Drivers == nil {
		cf.Drivers = make(map[string]driverEntry)
	}

	entry := cf.Drivers[name]
	entry.APIKey = credential
	entry.Enabled = true
	cf.Drivers[name] = entry

	data, err := toml.Marshal(cf)
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Watch reports config file changes until ctx is cancelled. Editors often
// replace rather than modify the file, so the parent directory is watched
// and re-arm handles the swap.
func (s *ConfigStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.filePath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				logger.Debug("Config changed: %s", event.Op)
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher: %v", err)
		}
	}
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// read parses the file (caller must hold lock). A missing file is an
// empty configuration.
func (s *ConfigStore) read() (*configFile, error) {
	var cf configFile

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &cf, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", s.filePath, err)
	}
	return &cf, nil
}

const defaultConfig = `# prospect configuration
#
# Each data source gets a [drivers.<name>] table. Sources stay off until
# enabled; most need an api_key. The googlesearch key is "apikey:cx".

[drivers.wayback]
enabled = true

[drivers.tavily]
enabled = false
# api_key = "tvly-..."

[drivers.crunchbase]
enabled = false
# api_key = "..."

[drivers.serpapi]
enabled = false
# api_key = "..."

[drivers.github]
enabled = false
# api_key = "ghp_..."

[drivers.googlesearch]
enabled = false
# api_key = "AIza...:017576662512468239146:omuauf_lfve"
`
