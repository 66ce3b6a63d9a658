package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultBcryptCost         = 12
	defaultGraphQLPath        = "/graphql"
	defaultMaxParallelism     = 10
	defaultKeyCacheTTL        = time.Hour
	defaultKeyRefreshInterval = time.Minute
	defaultAssertionTTL       = time.Hour
	defaultRequestTimeout     = 10 * time.Second
	defaultExchangeURL        = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithCustomToken"
	defaultJWKSURL            = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Storage selects the role/identity store backend
	Storage *StorageConfig `json:"storage" yaml:"storage"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Firebase configuration for the identity provider
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	GraphQL *GraphQLConfig `json:"graphql" yaml:"graphql"`

	CORS *CORSConfig `json:"cors" yaml:"cors"`
}

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Token verifier backends.
const (
	VerifierFirebase = "firebase"
	VerifierJWKS     = "jwks"
)

// StorageConfig defines which store backs users and roles
type StorageConfig struct {
	// Driver is "postgres" or "memory"
	Driver string `json:"driver" yaml:"driver"`

	// Migrate applies pending schema migrations on startup (postgres only)
	Migrate bool `json:"migrate" yaml:"migrate"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`
}

// FirebaseConfig defines the identity provider configuration
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`

	// APIKey is the web API key used for the custom token exchange
	APIKey string `json:"apiKey" yaml:"apiKey"`

	// ExchangeURL overrides the Identity Toolkit signInWithCustomToken endpoint (emulators)
	ExchangeURL string `json:"exchangeUrl" yaml:"exchangeUrl"`

	// Verifier is "firebase" (Admin SDK) or "jwks"
	Verifier string `json:"verifier" yaml:"verifier"`

	// JWKSURL is the key set used by the jwks verifier
	JWKSURL string `json:"jwksUrl" yaml:"jwksUrl"`

	// KeyCacheTTL bounds how long fetched signing keys are trusted
	KeyCacheTTL time.Duration `json:"keyCacheTtl" yaml:"keyCacheTtl"`

	// KeyRefreshInterval is the minimum gap between key set refetches caused by unknown key ids
	KeyRefreshInterval time.Duration `json:"keyRefreshInterval" yaml:"keyRefreshInterval"`

	// AssertionTTL is the lifetime of minted custom tokens (at most 1h)
	AssertionTTL time.Duration `json:"assertionTtl" yaml:"assertionTtl"`

	// RequestTimeout bounds each call to the identity provider
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"`
}

// GraphQLConfig defines the GraphQL endpoint configuration
type GraphQLConfig struct {
	Path           string `json:"path" yaml:"path"`
	Playground     bool   `json:"playground" yaml:"playground"`
	MaxParallelism int    `json:"maxParallelism" yaml:"maxParallelism"`
}

// CORSConfig defines allowed browser origins
type CORSConfig struct {
	AllowOrigins []string `json:"allowOrigins" yaml:"allowOrigins"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

// New loads an optional .env file into the process environment, then the
// config.yaml file overlaid with environment variables.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env failed")
	}

	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Storage == nil {
		cfg.Storage = &StorageConfig{}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverPostgres
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = defaultBcryptCost
	}
	if cfg.Firebase == nil {
		cfg.Firebase = &FirebaseConfig{}
	}
	if cfg.Firebase.Verifier == "" {
		cfg.Firebase.Verifier = VerifierFirebase
	}
	if cfg.Firebase.ExchangeURL == "" {
		cfg.Firebase.ExchangeURL = defaultExchangeURL
	}
	if cfg.Firebase.JWKSURL == "" {
		cfg.Firebase.JWKSURL = defaultJWKSURL
	}
	if cfg.Firebase.KeyCacheTTL == 0 {
		cfg.Firebase.KeyCacheTTL = defaultKeyCacheTTL
	}
	if cfg.Firebase.KeyRefreshInterval == 0 {
		cfg.Firebase.KeyRefreshInterval = defaultKeyRefreshInterval
	}
	if cfg.Firebase.AssertionTTL == 0 {
		cfg.Firebase.AssertionTTL = defaultAssertionTTL
	}
	if cfg.Firebase.RequestTimeout == 0 {
		cfg.Firebase.RequestTimeout = defaultRequestTimeout
	}
	if cfg.GraphQL == nil {
		cfg.GraphQL = &GraphQLConfig{}
	}
	if cfg.GraphQL.Path == "" {
		cfg.GraphQL.Path = defaultGraphQLPath
	}
	if cfg.GraphQL.MaxParallelism == 0 {
		cfg.GraphQL.MaxParallelism = defaultMaxParallelism
	}
	if cfg.CORS == nil {
		cfg.CORS = &CORSConfig{}
	}
}

// Validate reports configuration combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Postgres == nil {
			return errors.New("storage driver postgres requires a postgres section")
		}
	case StorageDriverMemory:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Firebase.Verifier {
	case VerifierFirebase, VerifierJWKS:
	default:
		return errors.Errorf("unknown token verifier %q", c.Firebase.Verifier)
	}

	if c.Firebase.AssertionTTL > time.Hour {
		return errors.Errorf("firebase.assertionTtl %s exceeds 1h", c.Firebase.AssertionTTL)
	}
	if c.Firebase.Verifier == VerifierJWKS && c.Firebase.ProjectID == "" {
		return errors.New("jwks verifier requires firebase.projectId")
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
