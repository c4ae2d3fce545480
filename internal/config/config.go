package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PAPAMICA/wallix-ssh/internal/model"
	"github.com/spf13/viper"
)

// Config carries everything the tool needs for one invocation. It is built
// once at startup and passed into every component constructor; there is no
// ambient configuration state.
type Config struct {
	Username    string
	Password    string
	BaseURL     string
	CacheFile   string
	HistoryFile string
	DeployFiles []string

	// DeployDir is the local directory deploy files are read from.
	DeployDir string

	// BastionHost is the host part of BaseURL, parsed once for building
	// the remote-shell command line.
	BastionHost string

	// HTTPTimeout bounds every bastion API round trip.
	HTTPTimeout time.Duration
}

// Load reads the TOML settings file. Search order: $WALLIX_CONFIG if set,
// then ~/.config/wallix/config.toml, then ./config.toml. A missing file is
// fatal for the caller; everything else gets a usable default.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if path := os.Getenv("WALLIX_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wallix"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("configuration file not found (create ~/.config/wallix/config.toml): %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cacheFile := v.GetString("wallix.cache_file")
	if cacheFile == "" {
		cacheFile = filepath.Join(home, ".wallix_cache")
	}

	baseURL := strings.TrimSuffix(v.GetString("wallix.base_url"), "/")

	cfg := &Config{
		Username:    v.GetString("wallix.username"),
		Password:    v.GetString("wallix.password"),
		BaseURL:     baseURL,
		CacheFile:   expandHome(cacheFile, home),
		HistoryFile: filepath.Join(home, ".wallix_history"),
		DeployFiles: model.SplitList(v.GetString("wallix.deploy_files")),
		DeployDir:   filepath.Join(home, ".sshtools"),
		BastionHost: hostFromURL(baseURL),
		HTTPTimeout: 10 * time.Second,
	}
	return cfg, nil
}

// hostFromURL extracts the host from the configured base URL, falling back
// to the raw value when it does not parse as a URL.
func hostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Host != "" {
		return u.Host
	}
	return u.Path
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
