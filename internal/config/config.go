// Package config はアプリケーション設定を読み込みます。
//
// 優先順位 (後が優先):
//  1. デフォルト値
//  2. CONFIG_FILE で指定したTOMLファイル
//  3. .env ファイル (godotenv)
//  4. 環境変数
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ストレージのバックエンド種別
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendMySQL  = "mysql"
	BackendNeo4j  = "neo4j"
	BackendNone   = "none"
)

// DefaultStorageKey はタスク一覧を保存するキーのデフォルト値です。
const DefaultStorageKey = "TODO_APPS"

// MySQLConfig はMySQL接続の設定です。
type MySQLConfig struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
	Host string `toml:"host"`
	Port string `toml:"port"`
	Name string `toml:"name"`
}

// Neo4jConfig はNeo4j接続の設定です。
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Pass     string `toml:"pass"`
	Database string `toml:"database"`
}

// Config はアプリケーション全体の設定です。
type Config struct {
	Port             string      `toml:"port"`
	LogLevel         string      `toml:"log_level"`
	StorageBackend   string      `toml:"storage_backend"`
	StorageKey       string      `toml:"storage_key"`
	StoreFile        string      `toml:"store_file"`
	RecoverMalformed bool        `toml:"recover_malformed"`
	JWTSecret        string      `toml:"jwt_secret"`
	AllowOrigins     []string    `toml:"allow_origins"`
	MySQL            MySQLConfig `toml:"mysql"`
	Neo4j            Neo4jConfig `toml:"neo4j"`
}

// Default はデフォルト設定を返します。
func Default() *Config {
	return &Config{
		Port:           "8080",
		LogLevel:       "info",
		StorageBackend: BackendFile,
		StorageKey:     DefaultStorageKey,
		StoreFile:      "data/todo-apps.json",
		AllowOrigins:   []string{"http://localhost:3000"},
		MySQL:          MySQLConfig{Host: "127.0.0.1", Port: "3306"},
		Neo4j:          Neo4jConfig{URI: "neo4j://localhost:7687", User: "neo4j"},
	}
}

// Load は設定を読み込みます。envFilesが空なら カレントディレクトリの .env を試します。
func Load(envFiles ...string) (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// .env が無いのは正常 (本番では環境変数を直接渡す)
	_ = godotenv.Load(envFiles...)

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.StorageBackend, "STORAGE_BACKEND")
	setString(&cfg.StorageKey, "STORAGE_KEY")
	setString(&cfg.StoreFile, "STORE_FILE")
	setString(&cfg.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("RECOVER_MALFORMED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RecoverMalformed = b
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowOrigins = splitList(v)
	}

	setString(&cfg.MySQL.User, "DB_USER")
	setString(&cfg.MySQL.Pass, "DB_PASS")
	setString(&cfg.MySQL.Host, "DB_HOST")
	setString(&cfg.MySQL.Port, "DB_PORT")
	setString(&cfg.MySQL.Name, "DB_NAME")

	setString(&cfg.Neo4j.URI, "NEO4J_URI")
	setString(&cfg.Neo4j.User, "NEO4J_USER")
	setString(&cfg.Neo4j.Pass, "NEO4J_PASS")
	setString(&cfg.Neo4j.Database, "NEO4J_DATABASE")
}

// Validate は設定値を検証します。
func (c *Config) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendMemory, BackendFile, BackendMySQL, BackendNeo4j, BackendNone:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if c.StorageBackend == BackendFile && c.StoreFile == "" {
		return fmt.Errorf("STORE_FILE is required for the file backend")
	}
	if c.StorageBackend == BackendMySQL && c.MySQL.Name == "" {
		return fmt.Errorf("DB_NAME is required for the mysql backend")
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	return nil
}

// Addr はHTTPサーバーの待ち受けアドレスを返します。
func (c *Config) Addr() string {
	return ":" + c.Port
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
