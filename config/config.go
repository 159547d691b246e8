// Package config exposes typed accessors over the service configuration.
//
// Values are resolved from, in order of precedence: GITDESK_* environment
// variables, an optional YAML file passed to Load, and the defaults below.
// Nested keys map to env names by replacing "." with "_", so
// workspace.root is read from GITDESK_WORKSPACE_ROOT.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GITDESK"

var v = newViper()

var (
	Server    serverConfig
	Database  databaseConfig
	Workspace workspaceConfig
	Git       gitConfig
	Auth      authConfig
	Upload    uploadConfig
	Log       logConfig
)

// DefaultAllowedExtensions is the upload allow-list used when none is configured.
var DefaultAllowedExtensions = []string{
	".txt", ".json", ".js", ".ts", ".jsx", ".tsx", ".html", ".css", ".md", ".xml", ".svg",
	".pdf", ".zip", ".tar", ".gz", ".jpg", ".jpeg", ".png", ".gif", ".go", ".py", ".yml", ".yaml",
}

func newViper() *viper.Viper {
	nv := viper.New()

	nv.SetDefault("env", "dev")
	nv.SetDefault("log.level", "info")

	nv.SetDefault("server.port", 8080)
	nv.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000"})

	nv.SetDefault("database.dsn", "postgres://localhost:5432/gitdesk?sslmode=disable")
	nv.SetDefault("database.max_conns", 20)
	nv.SetDefault("database.min_conns", 2)
	nv.SetDefault("database.connect_timeout", 10*time.Second)

	nv.SetDefault("workspace.root", "./repositories")
	nv.SetDefault("workspace.clone_depth", 0)

	nv.SetDefault("git.binary", "git")
	nv.SetDefault("git.remote_name", "origin")
	nv.SetDefault("git.author_name", "gitdesk")
	nv.SetDefault("git.author_email_domain", "users.noreply.gitdesk.local")
	nv.SetDefault("git.commit_stats", true)

	nv.SetDefault("auth.jwt_secret", "")
	nv.SetDefault("auth.token_ttl", 24*time.Hour)
	nv.SetDefault("auth.encryption_key", "")

	nv.SetDefault("upload.max_file_bytes", 10<<20)
	nv.SetDefault("upload.max_files", 10)
	nv.SetDefault("upload.allowed_extensions", DefaultAllowedExtensions)

	nv.SetEnvPrefix(envPrefix)
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	return nv
}

// Load reads the YAML file at path on top of the defaults. An empty path
// keeps defaults and environment only.
func Load(path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// Validate checks settings that have no usable default outside dev.
func Validate() error {
	if !IsDev() && Auth.JwtSecret() == "" {
		return errors.New("auth.jwt_secret is required outside dev")
	}
	if Server.Port() <= 0 || Server.Port() > 65535 {
		return fmt.Errorf("server.port out of range: %d", Server.Port())
	}
	if Workspace.Root() == "" {
		return errors.New("workspace.root must not be empty")
	}
	if Database.MaxConns() < 1 {
		return errors.New("database.max_conns must be at least 1")
	}
	if Upload.MaxFiles() < 1 {
		return errors.New("upload.max_files must be at least 1")
	}
	return nil
}

// Set overrides a key for the lifetime of the process. Intended for flags
// and tests.
func Set(key string, value any) {
	v.Set(key, value)
}

func IsDev() bool {
	return strings.EqualFold(v.GetString("env"), "dev")
}

type logConfig struct{}

func (logConfig) Level() string { return v.GetString("log.level") }

type serverConfig struct{}

func (serverConfig) Port() int64 { return v.GetInt64("server.port") }

func (serverConfig) CorsAllowedOrigins() []string { return stringSlice("server.cors_allowed_origins") }

type databaseConfig struct{}

func (databaseConfig) Dsn() string { return v.GetString("database.dsn") }

func (databaseConfig) MaxConns() int32 { return v.GetInt32("database.max_conns") }

func (databaseConfig) MinConns() int32 { return v.GetInt32("database.min_conns") }

func (databaseConfig) ConnectTimeout() time.Duration { return v.GetDuration("database.connect_timeout") }

type workspaceConfig struct{}

// Root is the directory holding one working copy per owner and repository.
func (workspaceConfig) Root() string { return v.GetString("workspace.root") }

// CloneDepth limits clone history; 0 clones everything.
func (workspaceConfig) CloneDepth() int { return v.GetInt("workspace.clone_depth") }

type gitConfig struct{}

func (gitConfig) Binary() string { return v.GetString("git.binary") }

func (gitConfig) RemoteName() string { return v.GetString("git.remote_name") }

func (gitConfig) AuthorName() string { return v.GetString("git.author_name") }

func (gitConfig) AuthorEmailDomain() string { return v.GetString("git.author_email_domain") }

func (gitConfig) CommitStats() bool { return v.GetBool("git.commit_stats") }

type authConfig struct{}

func (authConfig) JwtSecret() string { return v.GetString("auth.jwt_secret") }

func (authConfig) TokenTTL() time.Duration { return v.GetDuration("auth.token_ttl") }

func (authConfig) EncryptionKey() string { return v.GetString("auth.encryption_key") }

type uploadConfig struct{}

func (uploadConfig) MaxFileBytes() int64 { return v.GetInt64("upload.max_file_bytes") }

func (uploadConfig) MaxFiles() int { return v.GetInt("upload.max_files") }

func (uploadConfig) AllowedExtensions() []string { return stringSlice("upload.allowed_extensions") }

// stringSlice accepts both YAML lists and comma separated env values.
func stringSlice(key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
