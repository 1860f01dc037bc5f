// Utility for storing Blue Link credentials in the system keyring

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bluelinky/bluelink/pkg/cli"
)

const (
	secretPassword = "password"
	secretPIN      = "pin"
)

func usage(flags *pflag.FlagSet) func() {
	return func() {
		w := os.Stderr
		fmt.Fprintf(w, "usage: %s [OPTION...] password|pin [file]\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Reads a secret from stdin or file and saves it in the system keyring. Passwords are")
		fmt.Fprintf(w, "stored under the account username ($%s), PINs under the VIN ($%s).\n", cli.EnvUsername, cli.EnvVIN)
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Options:")
		flags.PrintDefaults()
	}
}

// readSecret reads a secret from r, dropping the trailing line break added by shells and editors.
func readSecret(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", errors.New("secret is empty")
	}
	return secret, nil
}

// save stores secret as the named kind of credential.
func save(config *cli.Config, kind, secret string) error {
	switch kind {
	case secretPassword:
		if config.Username == "" {
			return fmt.Errorf("must provide the account username using --username or $%s", cli.EnvUsername)
		}
		return config.SavePasswordToKeyring(secret)
	case secretPIN:
		if config.VIN == "" {
			return fmt.Errorf("must provide the VIN using --vin or $%s", cli.EnvVIN)
		}
		return config.SavePINToKeyring(secret)
	}
	return fmt.Errorf("unknown secret type '%s'", kind)
}

func main() {
	returnCode := 1
	defer func() {
		os.Exit(returnCode)
	}()

	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		return
	}

	flags := pflag.NewFlagSet(filepath.Base(os.Args[0]), pflag.ContinueOnError)
	var remove bool
	flags.BoolVar(&remove, "delete", false, "Remove the stored password and PIN instead of saving a secret")
	config.RegisterCommandLineFlags(flags)
	flags.Usage = usage(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			returnCode = 0
		}
		return
	}
	if err := config.ReadFromEnvironment(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading configuration: %s\n", err)
		return
	}

	if remove {
		if err := config.DeleteCredentials(); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing credentials: %s\n", err)
			return
		}
		returnCode = 0
		return
	}

	var secret string
	switch flags.NArg() {
	case 1:
		secret, err = readSecret(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading secret from stdin: %s\n", err)
			return
		}
	case 2:
		file, err := os.Open(flags.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading secret from file: %s\n", err)
			return
		}
		secret, err = readSecret(file)
		file.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading secret from file: %s\n", err)
			return
		}
	default:
		flags.Usage()
		return
	}

	if err := save(config, flags.Arg(0), secret); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %s to keyring: %s\n", flags.Arg(0), err)
		return
	}

	returnCode = 0
}
