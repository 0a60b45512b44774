package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Model    ModelConfig  `mapstructure:"model"`
	Train    TrainConfig  `mapstructure:"train"`
	Server   ServerConfig `mapstructure:"server"`
	LogLevel string       `mapstructure:"log_level"`
}

type ModelConfig struct {
	Path     string `mapstructure:"path"`
	CacheDir string `mapstructure:"cache_dir"`
}

type TrainConfig struct {
	VocabSize int  `mapstructure:"vocab_size"`
	NoCache   bool `mapstructure:"no_cache"`
	Parallel  bool `mapstructure:"parallel"`
	Workers   int  `mapstructure:"workers"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	Workers         int    `mapstructure:"workers"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"model-path", "model.path"},
	{"cache-dir", "model.cache_dir"},
	{"vocab-size", "train.vocab_size"},
	{"no-cache", "train.no_cache"},
	{"parallel", "train.parallel"},
	{"workers", "train.workers"},
	{"server-listen-addr", "server.listen_addr"},
	{"server-shutdown-timeout", "server.shutdown_timeout"},
	{"server-max-text-bytes", "server.max_text_bytes"},
	{"server-request-timeout", "server.request_timeout"},
	{"server-workers", "server.workers"},
	{"log-level", "log_level"},
}

func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			Path:     "",
			CacheDir: ".",
		},
		Train: TrainConfig{
			VocabSize: 0,
			NoCache:   false,
			Parallel:  false,
			Workers:   0,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 30,
			MaxTextBytes:    64 * 1024,
			RequestTimeout:  30,
			Workers:         4,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("model-path", defaults.Model.Path, "Tokenizer model file (default: <cache-dir>/tokenizer-<vocab-size>.tokenizer)")
	fs.String("cache-dir", defaults.Model.CacheDir, "Directory holding cached tokenizer models")
	fs.Int("vocab-size", defaults.Train.VocabSize, "Target vocabulary size (required by train)")
	fs.Bool("no-cache", defaults.Train.NoCache, "Retrain even if a cached model exists")
	fs.Bool("parallel", defaults.Train.Parallel, "Read corpus files and tokenize documents in parallel")
	fs.Int("workers", defaults.Train.Workers, "Parallel worker count (0 = GOMAXPROCS)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-workers", defaults.Server.Workers, "Maximum concurrent tokenization requests")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("BPETOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("bpetok")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// ErrVocabSizeRequired is returned when a command needs a vocabulary size and
// none was given by flag, environment or config file.
var ErrVocabSizeRequired = errors.New("vocab size is required (--vocab-size, BPETOK_TRAIN_VOCAB_SIZE or train.vocab_size)")

// Validate reports settings no command can run with. A zero vocab size means
// unset; commands that need one call RequireVocabSize.
func (c Config) Validate() error {
	if c.Train.VocabSize < 0 {
		return fmt.Errorf("vocab size must be positive, got %d", c.Train.VocabSize)
	}
	if c.Train.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Train.Workers)
	}
	if c.Server.Workers < 0 {
		return fmt.Errorf("server workers must not be negative, got %d", c.Server.Workers)
	}
	return nil
}

// RequireVocabSize returns ErrVocabSizeRequired when no vocab size is set.
func (c Config) RequireVocabSize() error {
	if c.Train.VocabSize <= 0 {
		return ErrVocabSizeRequired
	}
	return nil
}

// CachePath returns the cached model file for a vocabulary size.
func (c Config) CachePath(vocabSize int) string {
	return filepath.Join(c.Model.CacheDir, fmt.Sprintf("tokenizer-%d.tokenizer", vocabSize))
}

// ModelPath returns the explicit model path, or the cache path for the
// configured vocabulary size. It is empty when neither is set.
func (c Config) ModelPath() string {
	if c.Model.Path != "" {
		return c.Model.Path
	}
	if c.Train.VocabSize <= 0 {
		return ""
	}
	return c.CachePath(c.Train.VocabSize)
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("model.path", c.Model.Path)
	v.SetDefault("model.cache_dir", c.Model.CacheDir)
	v.SetDefault("train.vocab_size", c.Train.VocabSize)
	v.SetDefault("train.no_cache", c.Train.NoCache)
	v.SetDefault("train.parallel", c.Train.Parallel)
	v.SetDefault("train.workers", c.Train.Workers)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("log_level", c.LogLevel)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", fk.flag, err)
		}
	}
	return nil
}
