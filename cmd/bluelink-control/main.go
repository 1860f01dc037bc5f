package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/account"
	"github.com/bluelinky/bluelink/pkg/cli"
	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

const usage = `Sends commands to Hyundai Blue Link vehicles.

 * Every command requires an account username and password (or a cached session).
 * Vehicle commands also require a VIN and the vehicle PIN.
 * Secrets are read from $BLUELINK_PASSWORD and $BLUELINK_PIN, the system keyring
   (see bluelink-keyring), or an interactive prompt.`

var ErrVendorFailure = errors.New("vendor reported failure")

func writeErr(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format, a...)
	fmt.Fprintf(w, "\n")
}

type app struct {
	config         *cli.Config
	debug          bool
	output         string
	commandTimeout time.Duration
	connectTimeout time.Duration
	configured     bool

	acct *account.Account
	car  *vehicle.Vehicle
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bluelink-control",
		Short:         "Control Hyundai Blue Link vehicles",
		Long:          usage,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	flags := root.PersistentFlags()
	a.config.RegisterCommandLineFlags(flags)
	flags.BoolVar(&a.debug, "debug", false, "Enable verbose debugging messages")
	flags.StringVarP(&a.output, "output", "o", FormatJSON, "Output `format` ("+FormatJSON+"|"+FormatYAML+"|"+FormatTable+")")
	flags.DurationVar(&a.commandTimeout, "command-timeout", 60*time.Second, "Set timeout for commands sent to the vehicle.")
	flags.DurationVar(&a.connectTimeout, "connect-timeout", 30*time.Second, "Set timeout for logging in and loading vehicle features.")

	addCommands(root, a)
	root.AddCommand(newShellCommand(a), newLogoutCommand(a))
	return root
}

func (a *app) setup() error {
	if a.configured {
		return nil
	}
	a.configured = true
	if !a.debug {
		if debugEnv, ok := os.LookupEnv("BLUELINK_VERBOSE"); ok {
			a.debug = debugEnv != "false" && debugEnv != "0"
		}
	}
	if a.debug {
		log.SetLevel(log.LevelDebug)
	}
	switch a.output {
	case FormatJSON, FormatYAML, FormatTable:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, a.output)
	}
	return a.config.ReadFromEnvironment()
}

// addCommands adds a subcommand to parent for every entry in commands.
func addCommands(parent *cobra.Command, a *app) {
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parent.AddCommand(newCommand(a, name, commands[name]))
	}
}

func usageLine(name string, info *Command) string {
	parts := []string{name}
	for _, arg := range info.args {
		parts = append(parts, arg.name)
	}
	if len(info.optional) > 0 {
		var optional []string
		for _, arg := range info.optional {
			optional = append(optional, arg.name)
		}
		parts = append(parts, "["+strings.Join(optional, " ")+"]")
	}
	return strings.Join(parts, " ")
}

func (c *Command) longHelp() string {
	var b strings.Builder
	b.WriteString(c.help)
	for _, arg := range append(append([]Argument{}, c.args...), c.optional...) {
		fmt.Fprintf(&b, "\n    %s: %s", arg.name, arg.help)
	}
	return b.String()
}

func newCommand(a *app, name string, info *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   usageLine(name, info),
		Short: info.help,
		Long:  info.longHelp(),
		Args:  cobra.RangeArgs(len(info.args), len(info.args)+len(info.optional)),
	}
	for _, option := range info.options {
		if option.boolean {
			cmd.Flags().Bool(option.name, false, option.help)
		} else {
			cmd.Flags().String(option.name, option.fallback, option.help)
		}
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		keywords := make(map[string]string)
		for i, arg := range append(append([]Argument{}, info.args...), info.optional...) {
			if i < len(args) {
				keywords[arg.name] = args[i]
			}
		}
		for _, option := range info.options {
			if option.boolean {
				value, err := cmd.Flags().GetBool(option.name)
				if err != nil {
					return err
				}
				keywords[option.name] = strconv.FormatBool(value)
			} else {
				value, err := cmd.Flags().GetString(option.name)
				if err != nil {
					return err
				}
				keywords[option.name] = value
			}
		}
		return a.run(cmd.OutOrStdout(), info, keywords)
	}
	return cmd
}

// connect logs in and, if needVehicle is true, loads the configured vehicle. Connections are
// reused across shell commands.
func (a *app) connect(needVehicle bool) error {
	if a.acct != nil && (!needVehicle || a.car != nil) {
		return nil
	}
	if needVehicle {
		if a.config.VIN == "" {
			return ErrRequiresVIN
		}
		a.config.Flags = cli.FlagAll
	} else {
		a.config.Flags = cli.FlagAccount
	}
	if err := a.config.LoadCredentials(); err != nil {
		return fmt.Errorf("error loading credentials: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.connectTimeout)
	defer cancel()
	acct, car, err := a.config.Connect(ctx)
	if err != nil {
		return err
	}
	a.acct = acct
	if car != nil {
		a.car = car
	}
	return nil
}

func (a *app) run(w io.Writer, info *Command, keywords map[string]string) error {
	if err := a.connect(info.requiresVehicle); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.commandTimeout)
	defer cancel()
	result, err := info.handler(ctx, a.acct, a.car, keywords)
	if err != nil {
		return err
	}
	if err := render(w, a.output, result); err != nil {
		return err
	}
	if r, ok := result.(*protocol.Result); ok && r.Failed() {
		return fmt.Errorf("%w: %s", ErrVendorFailure, r.ErrorMessage)
	}
	return nil
}

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Read commands from standard input, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractiveShell(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func (a *app) runInteractiveShell(in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	for fmt.Fprintf(out, "> "); scanner.Scan(); fmt.Fprintf(out, "> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if err != nil {
			writeErr(errOut, "Invalid command: %s", err)
			continue
		}
		shell := &cobra.Command{
			Use:           "",
			SilenceUsage:  true,
			SilenceErrors: true,
		}
		addCommands(shell, a)
		shell.SetArgs(args)
		shell.SetIn(in)
		shell.SetOut(out)
		shell.SetErr(errOut)
		if err := shell.Execute(); err != nil {
			describeError(errOut, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading command: %w", err)
	}
	return nil
}

func newLogoutCommand(a *app) *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.Username == "" {
				return cli.ErrNoUsername
			}
			if err := a.config.ForgetCachedToken(); err != nil {
				return err
			}
			if forget {
				return a.config.DeleteCredentials()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget-credentials", false, "Also remove the password and PIN from the system keyring")
	return cmd
}

func describeError(w io.Writer, err error) {
	var unsupported *protocol.UnsupportedFeatureError
	switch {
	case errors.Is(err, protocol.ErrPinLocked):
		writeErr(w, "Vehicle PIN is locked after too many failed attempts. Wait before retrying.")
	case errors.As(err, &unsupported):
		writeErr(w, "%s. Run the features command to list what this vehicle supports.", err)
	case protocol.MayHaveSucceeded(err):
		writeErr(w, "Couldn't verify success: %s", err)
	default:
		writeErr(w, "Failed to execute command: %s", err)
	}
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		writeErr(os.Stderr, "Failed to load credential configuration: %s", err)
		return
	}
	a := &app{config: config}
	err = newRootCommand(a).Execute()
	config.UpdateCachedToken()
	if err != nil {
		describeError(os.Stderr, err)
		return
	}
	status = 0
}
