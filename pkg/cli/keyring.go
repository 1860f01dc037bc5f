package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/99designs/keyring"
	"golang.org/x/term"
)

const (
	keyringServiceName     = "com.bluelinky.bluelink"
	keyringPasswordService = "password"
	keyringPINService      = "pin"
	keyringDirectory       = "~/.bluelink_keys"
)

type backendType struct {
	config *Config
}

func (b backendType) String() string {
	if b.config == nil || len(b.config.Backend.AllowedBackends) == 0 {
		return string(keyring.InvalidBackend)
	}
	return string(b.config.Backend.AllowedBackends[0])
}

func (b backendType) Set(v string) error {
	value := keyring.BackendType(v)
	if b.config == nil {
		return fmt.Errorf("invalid backendType")
	}
	if v == "" {
		return nil
	}
	for _, name := range keyring.AvailableBackends() {
		if name == value {
			b.config.Backend.AllowedBackends = []keyring.BackendType{name}
			return nil
		}
	}
	return fmt.Errorf("unsupported credential storage")
}

func (b backendType) Type() string {
	return "keyring"
}

// promptWriter returns the terminal that prompts should be written to.
func promptWriter() (io.Writer, error) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return os.Stdout, nil
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return os.Stderr, nil
	}
	return nil, errNoTerminalIO
}

// promptSecret reads a line from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	w, err := promptWriter()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	return string(b), nil
}

func (c *Config) getKeyringPassword(prompt string) (string, error) {
	if c.keyringPassword != nil && *c.keyringPassword != "" {
		return *c.keyringPassword, nil
	}
	password, err := promptSecret(prompt)
	if err != nil {
		return "", err
	}
	c.keyringPassword = &password
	return password, nil
}

func (c *Config) openKeyring() (keyring.Keyring, error) {
	if c.kr != nil {
		return c.kr, nil
	}
	kr, err := keyring.Open(c.Backend)
	if err != nil {
		return nil, err
	}
	c.kr = kr
	return kr, nil
}

func (c *Config) passwordKey() string {
	return keyringPasswordService + "." + c.Username
}

func (c *Config) pinKey() string {
	return keyringPINService + "." + c.VIN
}

func (c *Config) loadSecret(key, description string) (string, error) {
	kr, err := c.openKeyring()
	if err != nil {
		return "", err
	}
	item, err := kr.Get(key)
	if err != nil {
		return "", fmt.Errorf("could not load %s: %w", description, err)
	}
	return string(item.Data), nil
}

func (c *Config) saveSecret(key, description, secret string) error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	if err := kr.Set(keyring.Item{
		Key:         key,
		Data:        []byte(secret),
		Label:       "Blue Link " + description,
		Description: description,
	}); err != nil {
		return fmt.Errorf("failed to enroll %s in keyring: %s", description, err)
	}
	return nil
}

// LoadPasswordFromKeyring loads c.Username's account password from the system keyring.
func (c *Config) LoadPasswordFromKeyring() (string, error) {
	if c.Username == "" {
		return "", ErrNoUsername
	}
	return c.loadSecret(c.passwordKey(), "password")
}

// SavePasswordToKeyring writes c.Username's account password to the system keyring.
func (c *Config) SavePasswordToKeyring(password string) error {
	if c.Username == "" {
		return ErrNoUsername
	}
	if err := c.saveSecret(c.passwordKey(), "password", password); err != nil {
		return err
	}
	c.password = password
	return nil
}

// LoadPINFromKeyring loads the PIN for c.VIN from the system keyring.
func (c *Config) LoadPINFromKeyring() (string, error) {
	return c.loadSecret(c.pinKey(), "PIN")
}

// SavePINToKeyring writes the PIN for c.VIN to the system keyring.
//
// PINs are stored per VIN, so owners of several vehicles can keep distinct PINs.
func (c *Config) SavePINToKeyring(pin string) error {
	if err := c.saveSecret(c.pinKey(), "PIN", pin); err != nil {
		return err
	}
	c.pin = pin
	return nil
}

// DeleteCredentials removes c.Username's password and, if c.VIN is set, the vehicle's PIN from the
// system keyring. Missing entries are ignored.
func (c *Config) DeleteCredentials() error {
	kr, err := c.openKeyring()
	if err != nil {
		return err
	}
	keys := []string{c.passwordKey()}
	if c.VIN != "" {
		keys = append(keys, c.pinKey())
	}
	for _, key := range keys {
		if err := kr.Remove(key); err != nil && err != keyring.ErrKeyNotFound {
			return err
		}
	}
	c.password = ""
	c.pin = ""
	return nil
}
