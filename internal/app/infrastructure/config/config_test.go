package config

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, 90, cfg.IRC.MaxChannelsPerConnection)
	assert.Equal(t, 5, cfg.IRC.MaxWaitingMessagesPerConnection)
	assert.Equal(t, 20*time.Second, cfg.IRC.ConnectTimeout)
	assert.Equal(t, DefaultURL, cfg.IRC.URL)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Address)
	assert.Len(t, cfg.App.AuthToken, authTokenLength)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk Config
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, *cfg, onDisk)
}

func TestNew_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app":{"login":"bot","oauth":"oauth:abc","channels":["foo"]}}`), 0644))

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "bot", cfg.App.Login)
	assert.Equal(t, "abc", cfg.App.OAuth)
	assert.Equal(t, []string{"foo"}, cfg.App.Channels)
	assert.Equal(t, 30*time.Second, cfg.IRC.PingEvery)
}

func TestNew_GeneratesAuthToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app":{"auth_token":""}}`), 0644))

	m, err := New(path)
	require.NoError(t, err)
	token := m.Get().App.AuthToken
	require.Len(t, token, authTokenLength)

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, token, reloaded.Get().App.AuthToken)

	other, err := New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.NotEqual(t, token, other.Get().App.AuthToken)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{
			name:    "bad log level",
			modify:  func(cfg *Config) { cfg.App.LogLevel = "loud" },
			wantErr: "app.log_level",
		},
		{
			name:    "login without oauth",
			modify:  func(cfg *Config) { cfg.App.Login = "bot" },
			wantErr: "app.oauth",
		},
		{
			name:    "empty channel",
			modify:  func(cfg *Config) { cfg.App.Channels = []string{"#"} },
			wantErr: "app.channels",
		},
		{
			name:    "http url",
			modify:  func(cfg *Config) { cfg.IRC.URL = "http://irc-ws.chat.twitch.tv" },
			wantErr: "irc.url",
		},
		{
			name:    "zero channels per connection",
			modify:  func(cfg *Config) { cfg.IRC.MaxChannelsPerConnection = 0 },
			wantErr: "irc.max_channels_per_connection",
		},
		{
			name:    "pong timeout longer than ping interval",
			modify:  func(cfg *Config) { cfg.IRC.PongTimeout = time.Minute },
			wantErr: "irc.pong_timeout",
		},
		{
			name:    "half set send rate",
			modify:  func(cfg *Config) { cfg.IRC.SendRate.Per = 0 },
			wantErr: "irc.send_rate",
		},
		{
			name:    "proxy port",
			modify:  func(cfg *Config) { cfg.Proxy = &Proxy{Address: "127.0.0.1", Port: 70000} },
			wantErr: "proxy.port",
		},
		{
			name:    "missing auth token",
			modify:  func(cfg *Config) { cfg.App.AuthToken = "" },
			wantErr: "app.auth_token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manager{}
			cfg := m.GetDefault()
			cfg.App.AuthToken = "token"
			tt.modify(cfg)

			err := m.validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManager_Channels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := New(path)
	require.NoError(t, err)

	require.NoError(t, m.AddChannel("foo"))
	require.NoError(t, m.AddChannel("bar"))
	require.NoError(t, m.AddChannel("foo"))
	require.NoError(t, m.RemoveChannel("bar"))

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, reloaded.Get().App.Channels)
}

func TestManager_UpdateRejectsInvalid(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	err = m.Update(func(cfg *Config) { cfg.IRC.ConnectTimeout = 0 })
	assert.ErrorContains(t, err, "irc.connect_timeout")
}

func TestLimiter_Limit(t *testing.T) {
	assert.Equal(t, rate.Every(1500*time.Millisecond), Limiter{Messages: 20, Per: 30 * time.Second}.Limit())
	assert.Equal(t, rate.Limit(0), Limiter{}.Limit())
}
