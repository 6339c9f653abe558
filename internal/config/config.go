package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode   `yaml:"mode"`
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`

	AuthSecret    string `yaml:"auth_secret"`
	AdminUser     string `yaml:"admin_user"`
	AdminPassHash string `yaml:"admin_pass_hash"` // bcrypt

	DefaultFormat string `yaml:"default_format"`

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`
}

// Load reads configuration from the environment, with an optional .env file
// and an optional YAML file (CONFIG_FILE) layered underneath env values.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayYAML(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:          mode,
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		PublicURL:     os.Getenv("PUBLIC_URL"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		BlobBasePath:  envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		DefaultFormat: envOr("DEFAULT_FORMAT", "imscc"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://doc2lms.example.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
	}
}

// overlayYAML fills in values the environment left at their defaults only
// when the YAML file sets them; env always wins for explicitly set vars.
func overlayYAML(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(b, &file); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	defaults := FromEnvDefaults()
	merge := func(cur *string, def, fromFile string) {
		if *cur == def && fromFile != "" {
			*cur = fromFile
		}
	}
	merge(&cfg.HTTPAddr, defaults.HTTPAddr, file.HTTPAddr)
	merge(&cfg.PublicURL, defaults.PublicURL, file.PublicURL)
	merge(&cfg.DBDriver, defaults.DBDriver, file.DBDriver)
	merge(&cfg.DBDSN, defaults.DBDSN, file.DBDSN)
	merge(&cfg.BlobBasePath, defaults.BlobBasePath, file.BlobBasePath)
	merge(&cfg.AuthSecret, defaults.AuthSecret, file.AuthSecret)
	merge(&cfg.AdminUser, defaults.AdminUser, file.AdminUser)
	merge(&cfg.AdminPassHash, defaults.AdminPassHash, file.AdminPassHash)
	merge(&cfg.DefaultFormat, defaults.DefaultFormat, file.DefaultFormat)
	if cfg.Mode == defaults.Mode && file.Mode != "" {
		cfg.Mode = file.Mode
	}
	if len(file.CORSOriginsOnline) > 0 {
		cfg.CORSOriginsOnline = file.CORSOriginsOnline
	}
	if len(file.CORSOriginsOffline) > 0 {
		cfg.CORSOriginsOffline = file.CORSOriginsOffline
	}
	return nil
}

// FromEnvDefaults returns the config as if no env var were set.
func FromEnvDefaults() Config {
	return Config{
		Mode:          ModeOffline,
		HTTPAddr:      ":8080",
		DBDriver:      "sqlite",
		BlobBasePath:  "./data",
		AuthSecret:    "supersecret-dev-key",
		AdminUser:     "admin",
		AdminPassHash: "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji",
		DefaultFormat: "imscc",
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
