package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"

	"github.com/quorumnet/partyd/metrics"
	"github.com/quorumnet/partyd/types"
)

const (
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "partyd.log"
	defaultConfigFileName = "partyd.conf"
	defaultDataDirname    = "data"
	defaultNetwork        = "devnet"
)

var (
	//   C:\Users\<username>\AppData\Local\Partyd on Windows
	//   ~/.partyd on Linux
	//   ~/Library/Application Support/Partyd on MacOS
	DefaultPartydDir = btcutil.AppDataDir("partyd", false)

	DefaultDataDir = DataDir(DefaultPartydDir)
)

// Config is the main config for the partyd daemon.
type Config struct {
	LogLevel string `long:"loglevel" description:"Logging level for all subsystems" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`

	Network string `long:"network" description:"Settlement network to run on" choice:"mainnet" choice:"testnet" choice:"devnet"`

	SelfKey string `long:"selfkey" description:"Hex-encoded compressed secp256k1 public key identifying this node"`

	MemberKeys []string `long:"memberkey" description:"Hex-encoded public key of a party member; repeat once per member, including this node"`

	SeedKeys []string `long:"seedkey" description:"Hex-encoded public key of a seed node whose observations anchor internal event times"`

	// NetworkParams is resolved from Network during Validate.
	NetworkParams types.Network

	// BTCNetParams is resolved from Network during Validate and used for
	// Bitcoin address validation.
	BTCNetParams chaincfg.Params

	WatcherConfig *WatcherConfig `group:"watcher" namespace:"watcher"`

	FormationConfig *FormationConfig `group:"formation" namespace:"formation"`

	DatabaseConfig *DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) Config {
	watcherCfg := DefaultWatcherConfig()
	formationCfg := DefaultFormationConfig()
	cfg := Config{
		LogLevel:        defaultLogLevel,
		Network:         defaultNetwork,
		WatcherConfig:   &watcherCfg,
		FormationConfig: &formationCfg,
		DatabaseConfig:  DefaultDBConfigWithHomePath(homePath),
		Metrics:         metrics.DefaultConfig(),
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() Config {
	return DefaultConfigWithHome(DefaultPartydDir)
}

func ConfigFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func DataDir(homePath string) string {
	return filepath.Join(homePath, defaultDataDirname)
}

// WriteConfigFile writes the default config, including comments, to the
// config file under homePath.
func WriteConfigFile(homePath string, cfg *Config) error {
	if err := os.MkdirAll(homePath, 0o700); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	fileParser := flags.NewParser(cfg, flags.Default)
	return flags.NewIniParser(fileParser).WriteFile(
		ConfigFile(homePath),
		flags.IniIncludeComments|flags.IniIncludeDefaults,
	)
}

// LoadConfig initializes and parses the config using the config file under
// the given home directory.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Load the configuration file, overwriting defaults with any specified
//     options
//  3. Validate the result
func LoadConfig(homePath string) (*Config, error) {
	cfgFile := ConfigFile(homePath)
	if !FileExists(cfgFile) {
		return nil, fmt.Errorf("specified config file does "+
			"not exist in %s", cfgFile)
	}

	var cfg Config
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the given configuration to be sane. This makes sure no
// illegal values or combination of values are set and resolves the network
// parameters.
func (cfg *Config) Validate() error {
	network, err := types.ParseNetwork(cfg.Network)
	if err != nil {
		return err
	}
	cfg.NetworkParams = network
	cfg.BTCNetParams = *network.BtcParams()

	if cfg.SelfKey != "" {
		if _, err := cfg.ParsedSelfKey(); err != nil {
			return err
		}
	}
	if _, err := cfg.ParsedMemberKeys(); err != nil {
		return err
	}
	if _, err := cfg.ParsedSeedKeys(); err != nil {
		return err
	}

	if cfg.WatcherConfig == nil {
		return fmt.Errorf("empty watcher config")
	}
	if err := cfg.WatcherConfig.Validate(); err != nil {
		return err
	}

	if cfg.FormationConfig == nil {
		return fmt.Errorf("empty formation config")
	}
	if err := cfg.FormationConfig.Validate(); err != nil {
		return err
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("empty database config")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return err
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("empty metrics config")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}

// ParsedSelfKey decodes the configured node identity key.
func (cfg *Config) ParsedSelfKey() (types.PublicKey, error) {
	if cfg.SelfKey == "" {
		return nil, fmt.Errorf("no self key configured")
	}
	k, err := types.NewPublicKeyFromHex(cfg.SelfKey)
	if err != nil {
		return nil, fmt.Errorf("invalid self key: %w", err)
	}
	return k, nil
}

// ParsedMemberKeys decodes the configured party membership.
func (cfg *Config) ParsedMemberKeys() ([]types.PublicKey, error) {
	return parseKeyList(cfg.MemberKeys, "member")
}

// ParsedSeedKeys decodes the configured seed node keys.
func (cfg *Config) ParsedSeedKeys() ([]types.PublicKey, error) {
	return parseKeyList(cfg.SeedKeys, "seed")
}

func parseKeyList(hexKeys []string, kind string) ([]types.PublicKey, error) {
	var out []types.PublicKey
	for _, s := range hexKeys {
		k, err := types.NewPublicKeyFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s key %q: %w", kind, s, err)
		}
		out = append(out, k)
	}
	return out, nil
}

// FileExists reports whether the named file or directory exists.
func FileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
