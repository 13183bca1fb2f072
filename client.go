package pakuspa

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viant/afs"
	"github.com/viant/pakuspa/client"
	"github.com/viant/pakuspa/client/auth/store"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	StoreTypeMemory = "memory"
	StoreTypeFile   = "file"
	StoreTypeRedis  = "redis"

	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "pakuspa-go"
	defaultRedisPrefix = "pakuspa:session"
)

// ClientOptions
//
// defines options for configuring a PAKU Spa API client.
type ClientOptions struct {
	BaseURL   string        `yaml:"baseURL" json:"baseURL,omitempty"  short:"u" long:"url" description:"api base URL" env:"PAKUSPA_URL"`
	Timeout   time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"  long:"timeout" description:"request timeout, i.e. 30s"`
	UserAgent string        `yaml:"userAgent,omitempty" json:"userAgent,omitempty"  long:"user-agent" description:"user agent header"`
	Debug     bool          `yaml:"debug,omitempty" json:"debug,omitempty"  long:"debug" description:"debug logging"`
	Store     ClientStore   `yaml:"store,omitempty" json:"store,omitempty" group:"session store" namespace:"store"`
}

// ClientStore defines where the session tokens are persisted.
type ClientStore struct {
	Type          string `yaml:"type,omitempty" json:"type,omitempty"  long:"type" description:"session store type" choice:"memory" choice:"file" choice:"redis"`
	URL           string `yaml:"url,omitempty" json:"url,omitempty"  long:"url" description:"file store URL"`
	RedisAddr     string `yaml:"redisAddr,omitempty" json:"redisAddr,omitempty"  long:"redis-addr" description:"redis address, i.e. localhost:6379"`
	RedisPassword string `yaml:"redisPassword,omitempty" json:"redisPassword,omitempty"  long:"redis-password" description:"redis password" env:"PAKUSPA_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redisDB,omitempty" json:"redisDB,omitempty"  long:"redis-db" description:"redis database"`
	Prefix        string `yaml:"prefix,omitempty" json:"prefix,omitempty"  long:"prefix" description:"redis key prefix"`
}

func (c *ClientOptions) Init() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Store.Type == "" {
		c.Store.Type = StoreTypeMemory
	}
	switch c.Store.Type {
	case StoreTypeFile:
		if c.Store.URL == "" {
			c.Store.URL = DefaultSessionURL()
		}
	case StoreTypeRedis:
		if c.Store.Prefix == "" {
			c.Store.Prefix = defaultRedisPrefix
		}
	}
}

func (c *ClientOptions) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("unsupported base URL: %v", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %v", c.Timeout)
	}
	switch c.Store.Type {
	case StoreTypeMemory:
	case StoreTypeFile:
		if c.Store.URL == "" {
			return fmt.Errorf("URL is required for file store")
		}
	case StoreTypeRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("redis address is required for redis store")
		}
	default:
		return fmt.Errorf("unsupported store type: %v", c.Store.Type)
	}
	return nil
}

// DefaultSessionURL returns session file location under the user config directory
func DefaultSessionURL() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pakuspa", "session.json")
}

// LoadOptions loads client options from YAML file
func LoadOptions(ctx context.Context, URL string) (*ClientOptions, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load options %v: %w", URL, err)
	}
	ret := &ClientOptions{}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode options %v: %w", URL, err)
	}
	return ret, nil
}

// NewStore creates session store defined by options
func NewStore(ctx context.Context, options *ClientStore) (store.Store, error) {
	switch options.Type {
	case "", StoreTypeMemory:
		return store.NewMemoryStore(), nil
	case StoreTypeFile:
		fileStore, err := store.NewFileStore(ctx, options.URL)
		if err != nil {
			return nil, err
		}
		return fileStore, nil
	case StoreTypeRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     options.RedisAddr,
			Password: options.RedisPassword,
			DB:       options.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis %v: %w", options.RedisAddr, err)
		}
		return store.NewRedisStore(redisClient, options.Prefix), nil
	}
	return nil, fmt.Errorf("unsupported store type: %v", options.Type)
}

// NewLogger creates a development logger in debug mode, otherwise a warn level production logger
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return config.Build()
}

// NewClient creates an API client with session store and logging configured via ClientOptions.
func NewClient(ctx context.Context, options *ClientOptions) (*client.Client, error) {
	options.Init()
	if err := options.Validate(); err != nil {
		return nil, err
	}
	aStore, err := NewStore(ctx, &options.Store)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(options.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("creating client",
		zap.String("baseURL", options.BaseURL),
		zap.String("store", options.Store.Type))
	return client.New(options.BaseURL,
		client.WithStore(aStore),
		client.WithTimeout(options.Timeout),
		client.WithUserAgent(options.UserAgent),
		client.WithLogger(logger),
	)
}
