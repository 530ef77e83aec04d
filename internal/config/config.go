package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// MaxKeySlots is the number of numbered private key variables read from the
// environment (PRIVATE_KEY1..PRIVATE_KEY10).
const MaxKeySlots = 10

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	PrivateKeys    []string
	MinPercent     int
	MaxPercent     int
	MinSleep       time.Duration
	MaxSleep       time.Duration
	FlushInterval  time.Duration
	LogDir         string
	EventsOut      string
	TxOut          string
	SnapshotsOut   string
	PostgresDSN    string
	StateFile      string
	HTTPAddr       string
	RPCTimeout     time.Duration
	ReceiptTimeout time.Duration
	ExplorerURL    string
	LogLevel       string
}

// LoadDotenv reads .env from the working directory. A missing file is not an error.
func LoadDotenv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("rpc", "SWAPBOT_RPC", "RPC_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	for i := 1; i <= MaxKeySlots; i++ {
		key := keySlot(i)
		if err := v.BindEnv(key, "SWAPBOT_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), "PRIVATE_KEY"+strconv.Itoa(i)); err != nil {
			return Config{}, fmt.Errorf("bind env: %w", err)
		}
	}

	v.SetDefault("min-pct", 10)
	v.SetDefault("max-pct", 50)
	v.SetDefault("min-sleep", time.Second)
	v.SetDefault("max-sleep", 10*time.Second)
	v.SetDefault("flush-interval", 24*time.Hour)
	v.SetDefault("log-dir", ".")
	v.SetDefault("events-out", "./data/events.jsonl")
	v.SetDefault("tx-out", "./data/transactions.jsonl")
	v.SetDefault("snapshots-out", "./data/balances.jsonl")
	v.SetDefault("state-file", "./data/flusher_state.json")
	v.SetDefault("http-addr", ":9090")
	v.SetDefault("rpc-timeout", 30*time.Second)
	v.SetDefault("receipt-timeout", 5*time.Minute)
	v.SetDefault("explorer-url", "https://basescan.org/tx/")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:         strings.TrimSpace(v.GetString("rpc")),
		PrivateKeys:    privateKeys(v),
		MinPercent:     v.GetInt("min-pct"),
		MaxPercent:     v.GetInt("max-pct"),
		MinSleep:       v.GetDuration("min-sleep"),
		MaxSleep:       v.GetDuration("max-sleep"),
		FlushInterval:  v.GetDuration("flush-interval"),
		LogDir:         v.GetString("log-dir"),
		EventsOut:      v.GetString("events-out"),
		TxOut:          v.GetString("tx-out"),
		SnapshotsOut:   v.GetString("snapshots-out"),
		PostgresDSN:    v.GetString("pg-dsn"),
		StateFile:      v.GetString("state-file"),
		HTTPAddr:       v.GetString("http-addr"),
		RPCTimeout:     v.GetDuration("rpc-timeout"),
		ReceiptTimeout: v.GetDuration("receipt-timeout"),
		ExplorerURL:    v.GetString("explorer-url"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the settings the run command cannot start without.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("rpc url is required (RPC_URL or --rpc)")
	}
	if c.KeyCount() == 0 {
		return errors.New("no private keys configured (PRIVATE_KEY1..PRIVATE_KEY10)")
	}
	if c.MinPercent < 0 || c.MaxPercent > 100 || c.MinPercent > c.MaxPercent {
		return fmt.Errorf("invalid percentage range: min=%d max=%d", c.MinPercent, c.MaxPercent)
	}
	if c.MinSleep <= 0 || c.MaxSleep < c.MinSleep {
		return fmt.Errorf("invalid sleep range: min=%s max=%s", c.MinSleep, c.MaxSleep)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("invalid flush interval: %s", c.FlushInterval)
	}
	return nil
}

// KeyCount returns the number of non-blank private keys.
func (c Config) KeyCount() int {
	n := 0
	for _, key := range c.PrivateKeys {
		if strings.TrimSpace(key) != "" {
			n++
		}
	}
	return n
}

func keySlot(i int) string {
	return "private-key" + strconv.Itoa(i)
}

// privateKeys keeps the numbered slots in index order, blanks included, so
// errors can refer to a key by position. The private-keys list follows.
func privateKeys(v *viper.Viper) []string {
	keys := make([]string, 0, MaxKeySlots)
	for i := 1; i <= MaxKeySlots; i++ {
		keys = append(keys, strings.TrimSpace(v.GetString(keySlot(i))))
	}
	keys = append(keys, getStringSlice(v, "private-keys")...)
	last := len(keys)
	for last > 0 && keys[last-1] == "" {
		last--
	}
	return keys[:last]
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
