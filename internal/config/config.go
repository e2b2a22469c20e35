// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Environment  string
	Server       ServerConfig
	Log          LogConfig
	Network      NetworkConfig
	RPC          RPCConfig
	ContentStore ContentStoreConfig
	Gas          GasConfig
	RateLimit    RateLimitConfig
	Security     SecurityConfig
	Tracing      TracingConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type NetworkConfig struct {
	Name string // testnet or mainnet

	// Resolved from the embedded network table plus env overrides.
	Active *Network
}

type RPCConfig struct {
	URL            string
	FallbackURLs   []string
	TimeoutSeconds int
}

type ContentStoreConfig struct {
	Mode           string // pinata, s3 or mock
	PinataJWT      string
	PinataAPIURL   string
	GatewayURL     string
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKeyID  string
	S3SecretKey    string
	TimeoutSeconds int
}

type GasConfig struct {
	BufferPercent int
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type SecurityConfig struct {
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
	APIJWTSecret       string
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

const (
	StoreModePinata = "pinata"
	StoreModeS3     = "s3"
	StoreModeMock   = "mock"
)

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", EnvDevelopment),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Network: NetworkConfig{
			Name: strings.ToLower(getEnv("STORY_NETWORK", "testnet")),
		},
		RPC: RPCConfig{
			URL:            getEnv("RPC_URL", ""),
			FallbackURLs:   getEnvAsList("RPC_FALLBACK_URLS"),
			TimeoutSeconds: getEnvAsInt("RPC_TIMEOUT_SECONDS", 10),
		},
		ContentStore: ContentStoreConfig{
			Mode:           strings.ToLower(getEnv("CONTENT_STORE", StoreModePinata)),
			PinataJWT:      getEnv("PINATA_JWT", ""),
			PinataAPIURL:   getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
			GatewayURL:     getEnv("IPFS_GATEWAY_URL", "https://ipfs.io/ipfs"),
			S3Endpoint:     getEnv("S3_ENDPOINT", "https://s3.filebase.com"),
			S3Region:       getEnv("S3_REGION", "us-east-1"),
			S3Bucket:       getEnv("S3_BUCKET", ""),
			S3AccessKeyID:  getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretKey:    getEnv("S3_SECRET_ACCESS_KEY", ""),
			TimeoutSeconds: getEnvAsInt("UPLOAD_TIMEOUT_SECONDS", 10),
		},
		Gas: GasConfig{
			BufferPercent: getEnvAsInt("GAS_BUFFER_PERCENT", 20),
		},
		RateLimit: RateLimitConfig{
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Security: SecurityConfig{
			MaxBodyBytes:       int64(getEnvAsInt("MAX_BODY_BYTES", 150<<20)),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
			APIJWTSecret:       getEnv("API_JWT_SECRET", ""),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("TRACING_ENABLED", false),
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("SERVICE_NAME", "story-txprep"),
		},
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	network, err := ResolveNetwork(config.Network.Name, contractOverridesFromEnv())
	if err != nil {
		return config, err
	}
	config.Network.Active = network

	return config, nil
}

func (c *Config) Validate() error {
	if _, ok := defaultNetworks()[c.Network.Name]; !ok {
		return fmt.Errorf("unknown network %q: expected testnet or mainnet", c.Network.Name)
	}

	switch c.ContentStore.Mode {
	case StoreModePinata, StoreModeS3:
	case StoreModeMock:
		if c.Environment == EnvProduction {
			return fmt.Errorf("CONTENT_STORE=mock is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown content store %q: expected pinata, s3 or mock", c.ContentStore.Mode)
	}

	if c.Gas.BufferPercent < 0 || c.Gas.BufferPercent > 100 {
		return fmt.Errorf("GAS_BUFFER_PERCENT must be between 0 and 100")
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.WindowSeconds < 1 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}

	if c.RPC.TimeoutSeconds < 1 || c.ContentStore.TimeoutSeconds < 1 {
		return fmt.Errorf("RPC and upload timeouts must be positive")
	}

	for key, value := range contractOverridesFromEnv() {
		if !common.IsHexAddress(value) {
			return fmt.Errorf("%s is not a valid address", key)
		}
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// RPCURLs returns the primary endpoint followed by the fallbacks, without duplicates.
func (c *Config) RPCURLs() []string {
	var urls []string
	seen := map[string]bool{}
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	add(c.RPC.URL)
	for _, u := range c.RPC.FallbackURLs {
		add(u)
	}
	if c.Network.Active != nil {
		add(c.Network.Active.RPCURL)
		for _, u := range c.Network.Active.FallbackRPCURLs {
			add(u)
		}
	}
	return urls
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
