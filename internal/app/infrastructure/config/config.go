package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

const authTokenLength = 32

type Manager struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

func New(path string) (*Manager, error) {
	m := &Manager{path: path}

	var (
		err       error
		generated bool
	)
	m.cfg, generated, err = m.readParseValidate(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if errors.Is(err, os.ErrNotExist) {
		m.cfg = m.GetDefault()
		if _, err := ensureAuthToken(m.cfg); err != nil {
			return nil, err
		}
		if err := m.validate(m.cfg); err != nil {
			return nil, fmt.Errorf("validate default config: %w", err)
		}
		generated = true
	}

	if generated {
		if err := m.saveLocked(); err != nil {
			return nil, fmt.Errorf("write config: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cfg
}

func (m *Manager) Update(modify func(cfg *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg == nil {
		return errors.New("no config loaded")
	}

	modify(m.cfg)

	if err := m.validate(m.cfg); err != nil {
		return fmt.Errorf("invalid config update: %w", err)
	}
	return m.saveLocked()
}

// AddChannel remembers channel so it is joined again on the next start.
func (m *Manager) AddChannel(channel string) error {
	return m.Update(func(cfg *Config) {
		if !slices.Contains(cfg.App.Channels, channel) {
			cfg.App.Channels = append(cfg.App.Channels, channel)
		}
	})
}

func (m *Manager) RemoveChannel(channel string) error {
	return m.Update(func(cfg *Config) {
		cfg.App.Channels = slices.DeleteFunc(cfg.App.Channels, func(ch string) bool { return ch == channel })
	})
}

// readParseValidate reports whether an auth token had to be generated, in
// which case the file must be written back.
func (m *Manager) readParseValidate(path string) (*Config, bool, error) {
	if path == "" {
		return nil, false, errors.New("no config path provided")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("open/read config: %w", err)
	}

	cfg := m.GetDefault()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, false, fmt.Errorf("parse json: %w", err)
	}

	generated, err := ensureAuthToken(cfg)
	if err != nil {
		return nil, false, err
	}

	if err := m.validate(cfg); err != nil {
		return nil, false, fmt.Errorf("validate: %w", err)
	}
	return cfg, generated, nil
}

// ensureAuthToken fills an empty app.auth_token with a random one so the
// HTTP API is never served without credentials.
func ensureAuthToken(cfg *Config) (bool, error) {
	if cfg.App.AuthToken != "" {
		return false, nil
	}

	buf := make([]byte, (authTokenLength*3)/4)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("generate auth token: %w", err)
	}
	cfg.App.AuthToken = base64.RawURLEncoding.EncodeToString(buf)[:authTokenLength]
	return true, nil
}

func (m *Manager) saveLocked() error {
	if m.path == "" {
		return errors.New("no config file loaded")
	}
	if m.cfg == nil {
		return errors.New("no config to save")
	}

	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.writeAtomic(m.path, data, 0644)
}

func (m *Manager) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
