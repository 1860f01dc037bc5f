/*
Package cli facilitates building command-line applications that control Blue Link vehicles. It
defines a [Config] type that registers common command-line flags (on a [pflag.FlagSet]) and reads
their environment variable and config file equivalents through [viper].

The package uses [keyring]'s platform-agnostic interface for storing sensitive values (account
passwords and vehicle PINs) in an OS-dependent credential store.

# Examples

	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags(pflag.CommandLine) // Adds --username, --vin, keyring flags, etc.
	pflag.Parse()
	if err := config.ReadFromEnvironment(); err != nil { // Fills in missing fields from $BLUELINK_* and ~/.bluelink.yaml
		panic(err)
	}
	if err := config.LoadCredentials(); err != nil { // Prompts for the password and PIN if needed
		panic(err)
	}

	// Logs in (or resumes a cached session) and, if a VIN was provided, fetches the vehicle. The
	// car may be nil even if err is nil.
	acct, car, err := config.Connect(ctx)
	if err != nil {
		panic(err)
	}
	defer config.UpdateCachedToken()

Use a [Flag] mask to control what [Config] fields are populated. Note that config.Flags must be set
before registering flags or calling [Config.ReadFromEnvironment]:

	config, err = cli.NewConfig(cli.FlagAccount) // config.Connect() returns a nil car.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/99designs/keyring"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/account"
	"github.com/bluelinky/bluelink/pkg/cache"
	"github.com/bluelinky/bluelink/pkg/connector"
	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

// EnvPrefix is prepended to the upper-cased option name to form its environment variable, so
// --keyring-type can be set with BLUELINK_KEYRING_TYPE.
const EnvPrefix = "BLUELINK"

// Environment variable names used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvUsername        = "BLUELINK_USERNAME"
	EnvPassword        = "BLUELINK_PASSWORD"
	EnvVIN             = "BLUELINK_VIN"
	EnvPIN             = "BLUELINK_PIN"
	EnvHost            = "BLUELINK_HOST"
	EnvCacheFile       = "BLUELINK_CACHE_FILE"
	EnvConfigFile      = "BLUELINK_CONFIG"
	EnvKeyringType     = "BLUELINK_KEYRING_TYPE"
	EnvKeyringPassword = "BLUELINK_KEYRING_PASSWORD"
	EnvKeyringPath     = "BLUELINK_KEYRING_PATH"
	EnvKeyringDebug    = "BLUELINK_KEYRING_DEBUG"
)

const (
	defaultConfigFile = "~/.bluelink.yaml"
	defaultCacheFile  = "~/.bluelink-cache.json"
	defaultCacheSize  = 8
)

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagVIN     Flag = 1 // Enable VIN option.
	FlagAccount Flag = 2 // Enable account options. Required for every vendor request.
	FlagPIN     Flag = 4 // Enable PIN options. Required for vehicle requests; requires FlagVIN.
	FlagAll     Flag = FlagVIN | FlagAccount | FlagPIN
)

var (
	ErrNoUsername   = errors.New("account username not provided")
	ErrNoAccount    = errors.New("configuration must permit account options")
	ErrNoPassword   = errors.New("account password not provided")
	ErrNoPIN        = errors.New("vehicle PIN not provided")
	ErrKeyNotFound  = keyring.ErrKeyNotFound
	errNoTerminalIO = errors.New("no terminal available for prompt")
)

// Config fields determine how a client authenticates to the Blue Link service.
type Config struct {
	Flags         Flag // Controls which set of environment variables/CLI flags to use.
	Username      string
	VIN           string
	Host          string // Serves every endpoint not overridden by Endpoints.
	CacheFilename string
	ConfigFile    string
	Endpoints     protocol.Endpoints
	Backend       keyring.Config
	BackendType   backendType
	Debug         bool // Enable keyring debug messages

	// Transport defaults to an HTTPS connection using http.DefaultClient.
	Transport connector.Transport
	// Metrics, if set, is passed to the account and the vehicles it creates.
	Metrics *vehicle.Metrics

	settings        *viper.Viper
	keyringPassword *string
	password        string
	pin             string
	kr              keyring.Keyring
	tokens          *cache.TokenCache
	acct            *account.Account
}

func NewConfig(flags Flag) (*Config, error) {
	c := Config{
		Flags:    flags,
		settings: newSettings(),
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
		},
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getKeyringPassword
	c.Backend.FilePasswordFunc = c.getKeyringPassword

	return &c, nil
}

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")
	v.SetDefault("cache-file", defaultCacheFile)
	return v
}

// RegisterCommandLineFlags adds the options enabled by c.Flags to flags.
func (c *Config) RegisterCommandLineFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.ConfigFile, "config", "", "YAML config `file`. Defaults to $BLUELINK_CONFIG or "+defaultConfigFile+".")
	if c.Flags.isSet(FlagVIN) {
		flags.StringVar(&c.VIN, "vin", "", "Vehicle Identification Number. Defaults to $BLUELINK_VIN.")
	}
	if c.Flags.isSet(FlagPIN) && !c.Flags.isSet(FlagVIN) {
		log.Debug("FlagPIN is set but FlagVIN is not. A VIN is required to send vehicle commands.")
	}
	if c.Flags.isSet(FlagAccount) {
		flags.StringVarP(&c.Username, "username", "u", "", "Blue Link account `email`. Defaults to $BLUELINK_USERNAME.")
		flags.StringVar(&c.Host, "host", "", "Owners site `hostname`. Defaults to $BLUELINK_HOST or "+protocol.DefaultHost+".")
		flags.StringVar(&c.CacheFilename, "cache-file", "", "Load session token cache from `file`. Defaults to $BLUELINK_CACHE_FILE or "+defaultCacheFile+".")
	}
	if c.Flags.isSet(FlagAccount) || c.Flags.isSet(FlagPIN) {
		var names []string
		for _, name := range keyring.AvailableBackends() {
			names = append(names, string(name))
		}
		sort.Strings(names)
		flags.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+strings.Join(names, "|")+"). Defaults to $BLUELINK_KEYRING_TYPE.")
		flags.StringVar(&c.Backend.FileDir, "keyring-file-dir", "", "Keyring `directory` for file-backed keyring types. Defaults to $BLUELINK_KEYRING_PATH or "+keyringDirectory+".")
		flags.BoolVar(&c.Debug, "keyring-debug", false, "Enable keyring debug logging")
		c.registerCommandLineFlagsOsSpecific(flags)
	}
}

// LoadCredentials loads the account password and vehicle PIN, prompting for them (or for the
// keyring password) if needed. Call this method before [Config.Connect] to prevent interactive
// prompts from counting against timeouts.
//
// The password is not required when the token cache holds a session for c.Username.
func (c *Config) LoadCredentials() error {
	if c.Flags.isSet(FlagAccount) {
		if c.Username == "" {
			return ErrNoUsername
		}
		if err := c.loadCache(); err != nil {
			return err
		}
		if _, ok := c.cachedToken(); !ok {
			if _, err := c.Password(); err != nil {
				return err
			}
		}
	}
	if c.Flags.isSet(FlagPIN) && c.VIN != "" {
		if _, err := c.PIN(); err != nil {
			return err
		}
	}
	return nil
}

// ReadFromEnvironment populates c using environment variables and the YAML config file. Values that
// are already populated are not overwritten.
//
// Calling ReadFromEnvironment after the flag set is parsed prevents the environment from
// overriding explicit command-line parameters.
func (c *Config) ReadFromEnvironment() error {
	if err := c.readConfigFile(); err != nil {
		return err
	}
	setString := func(field *string, key, description string) {
		if *field == "" {
			*field = c.settings.GetString(key)
			log.Debug("Set %s to '%s'", description, *field)
		}
	}
	if c.Flags.isSet(FlagVIN) {
		setString(&c.VIN, "vin", "VIN")
	}
	if c.Flags.isSet(FlagAccount) {
		setString(&c.Username, "username", "username")
		setString(&c.Host, "host", "host")
		setString(&c.CacheFilename, "cache-file", "token cache file")
		if c.password == "" {
			c.password = c.settings.GetString("password")
			if c.password != "" {
				log.Debug("Set password to %s", strings.Repeat("*", len("hunter2")))
			}
		}
		if err := c.settings.UnmarshalKey("endpoints", &c.Endpoints); err != nil {
			return fmt.Errorf("invalid endpoints in %s: %w", c.settings.ConfigFileUsed(), err)
		}
	}
	if c.Flags.isSet(FlagPIN) && c.pin == "" {
		c.pin = c.settings.GetString("pin")
	}
	if c.Flags.isSet(FlagAccount) || c.Flags.isSet(FlagPIN) {
		if c.BackendType.String() == string(keyring.InvalidBackend) {
			if err := c.BackendType.Set(c.settings.GetString("keyring-type")); err == nil {
				log.Debug("Set keyring type to '%s'", c.BackendType)
			}
		}
		if c.keyringPassword == nil {
			password := c.settings.GetString("keyring-password")
			c.keyringPassword = &password
			if len(password) > 0 {
				log.Debug("Set keyring File Password to %s", strings.Repeat("*", len("hunter2")))
			}
		}
		setString(&c.Backend.FileDir, "keyring-path", "keyring File Path")
		if c.Backend.FileDir == "" {
			c.Backend.FileDir = keyringDirectory
		}
		if !c.Debug {
			c.Debug = c.settings.GetBool("keyring-debug")
			log.Debug("Set keyring Debug Logging to '%v'", c.Debug)
		}
		keyring.Debug = c.Debug
	}
	return nil
}

// readConfigFile loads the YAML config file. A missing default file is not an error.
func (c *Config) readConfigFile() error {
	filename := c.ConfigFile
	if filename == "" {
		filename = c.settings.GetString("config")
	}
	explicit := filename != ""
	if !explicit {
		filename = defaultConfigFile
	}
	path, err := homedir.Expand(filename)
	if err != nil {
		return err
	}
	c.settings.SetConfigFile(path)
	if err := c.settings.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			log.Debug("No config file at %s", path)
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	log.Debug("Loaded config file %s", path)
	return nil
}

// Password returns the account password, consulting the environment, then the system keyring,
// then an interactive prompt.
func (c *Config) Password() (string, error) {
	if c.password != "" {
		return c.password, nil
	}
	if c.Username == "" {
		return "", ErrNoUsername
	}
	password, err := c.LoadPasswordFromKeyring()
	if err == nil {
		c.password = password
		return password, nil
	}
	log.Debug("Password not loaded from keyring: %s", err)
	password, err = promptSecret("Password for " + c.Username)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoPassword, err)
	}
	c.password = password
	return password, nil
}

// PIN returns the vehicle PIN, consulting the environment, then the system keyring, then an
// interactive prompt.
func (c *Config) PIN() (string, error) {
	if c.pin != "" {
		return c.pin, nil
	}
	pin, err := c.LoadPINFromKeyring()
	if err == nil {
		c.pin = pin
		return pin, nil
	}
	log.Debug("PIN not loaded from keyring: %s", err)
	pin, err = promptSecret("PIN for " + c.VIN)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoPIN, err)
	}
	c.pin = pin
	return pin, nil
}

func (c *Config) endpoints() protocol.Endpoints {
	defaults := protocol.DefaultEndpoints()
	if c.Host != "" {
		defaults = protocol.EndpointsForHost(c.Host)
	}
	return c.Endpoints.Merge(defaults)
}

func (c *Config) accountConfig() account.Config {
	return account.Config{
		Username:  c.Username,
		Password:  c.password,
		Endpoints: c.endpoints(),
		Transport: c.Transport,
		Metrics:   c.Metrics,
	}
}

// Account resumes the cached session for c.Username or, failing that, logs in with the password.
// The account is created once; subsequent calls return the same account.
func (c *Config) Account(ctx context.Context) (*account.Account, error) {
	if c.acct != nil {
		return c.acct, nil
	}
	if !c.Flags.isSet(FlagAccount) {
		return nil, ErrNoAccount
	}
	if c.Username == "" {
		return nil, ErrNoUsername
	}
	if err := c.loadCache(); err != nil {
		return nil, err
	}

	var err error
	if token, ok := c.cachedToken(); ok {
		log.Debug("Resuming cached session for %s", c.Username)
		c.acct, err = account.NewFromToken(c.accountConfig(), token)
		return c.acct, err
	}
	if _, err = c.Password(); err != nil {
		return nil, err
	}
	log.Info("Logging in as %s...", c.Username)
	c.acct, err = account.Login(ctx, c.accountConfig())
	return c.acct, err
}

// Connect logs in to the configured account and, if c includes a VIN, also fetches the
// corresponding vehicle and waits for it to finish loading its feature list.
func (c *Config) Connect(ctx context.Context) (acct *account.Account, car *vehicle.Vehicle, err error) {
	acct, err = c.Account(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !c.Flags.isSet(FlagVIN) || c.VIN == "" {
		// No vehicle requested, return early.
		return acct, nil, nil
	}

	var pin string
	if c.Flags.isSet(FlagPIN) {
		if pin, err = c.PIN(); err != nil {
			return nil, nil, err
		}
	}
	car, err = acct.GetVehicle(ctx, c.VIN, pin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vehicle: %w", err)
	}
	log.Info("Loading vehicle features...")
	if err = car.Wait(ctx); err != nil {
		return nil, nil, err
	}
	if err = car.BootstrapErr(); err != nil {
		return nil, nil, err
	}
	return acct, car, nil
}

// UpdateCachedToken saves the account's current session token to c.CacheFilename.
//
// If c.CacheFilename is not set or no account has been created, then this method does nothing.
func (c *Config) UpdateCachedToken() {
	if c.acct == nil || c.tokens == nil {
		return
	}
	filename, err := c.cacheFile()
	if err != nil || filename == "" {
		return
	}
	token := c.acct.Token()
	if token == nil {
		return
	}
	c.tokens.Update(c.Username, token)
	if err := c.tokens.ExportToFile(filename); err != nil {
		log.Error("Error updating cache: %s", err)
	}
}

// ForgetCachedToken removes c.Username's session from the token cache.
func (c *Config) ForgetCachedToken() error {
	filename, err := c.cacheFile()
	if err != nil || filename == "" {
		return err
	}
	if err := c.loadCache(); err != nil {
		return err
	}
	c.tokens.Delete(c.Username)
	return c.tokens.ExportToFile(filename)
}

func (c *Config) cacheFile() (string, error) {
	if c.CacheFilename == "" {
		return "", nil
	}
	path, err := homedir.Expand(c.CacheFilename)
	if err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

func (c *Config) loadCache() error {
	if c.tokens != nil {
		return nil
	}
	filename, err := c.cacheFile()
	if err != nil {
		return err
	}
	if filename == "" {
		c.tokens = cache.New(defaultCacheSize)
		return nil
	}
	log.Debug("Loading cache from %s...", filename)
	c.tokens, err = cache.ImportFromFile(filename)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load token cache: %s", err)
		}
		// Create a new cache if one couldn't be loaded from the file
		c.tokens = cache.New(defaultCacheSize)
	}
	return nil
}

func (c *Config) cachedToken() (*oauth2.Token, bool) {
	if c.tokens == nil {
		return nil, false
	}
	return c.tokens.GetEntry(c.Username)
}
