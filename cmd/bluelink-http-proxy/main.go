package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/bluelinky/bluelink/internal/log"
	"github.com/bluelinky/bluelink/pkg/cli"
	"github.com/bluelinky/bluelink/pkg/proxy"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

const defaultPort = 4443

const (
	EnvTlsCert = "BLUELINK_HTTP_PROXY_TLS_CERT"
	EnvTlsKey  = "BLUELINK_HTTP_PROXY_TLS_KEY"
	EnvHost    = "BLUELINK_HTTP_PROXY_HOST"
	EnvPort    = "BLUELINK_HTTP_PROXY_PORT"
	EnvTimeout = "BLUELINK_HTTP_PROXY_TIMEOUT"
	EnvVerbose = "BLUELINK_VERBOSE"
)

const nonLocalhostWarning = `
Do not listen on a network interface without adding client authentication. Unauthorized clients may
unlock and start vehicles on the configured account, and excessive traffic may cause the vendor to
lock the account's PIN.`

type HttpProxyConfig struct {
	keyFilename  string
	certFilename string
	verbose      bool
	host         string
	port         int
	timeout      time.Duration
}

var (
	httpConfig = &HttpProxyConfig{}
	flags      = pflag.NewFlagSet("bluelink-http-proxy", pflag.ContinueOnError)
)

func init() {
	flags.StringVar(&httpConfig.certFilename, "cert", "", "TLS certificate chain `file` with concatenated server, intermediate CA, and root CA certificates. A self-signed certificate is generated if omitted.")
	flags.StringVar(&httpConfig.keyFilename, "tls-key", "", "Server TLS private key `file`")
	flags.BoolVar(&httpConfig.verbose, "verbose", false, "Enable verbose logging")
	flags.StringVar(&httpConfig.host, "listen-host", "localhost", "Proxy server `hostname`")
	flags.IntVar(&httpConfig.port, "port", defaultPort, "`Port` to listen on")
	flags.DurationVar(&httpConfig.timeout, "timeout", proxy.DefaultTimeout, "Timeout interval when sending commands")
}

func Usage() {
	out := os.Stderr
	fmt.Fprintf(out, "Usage: %s [OPTION...]\n", os.Args[0])
	fmt.Fprintf(out, "\nA server that exposes a REST API for sending commands to Blue Link vehicles.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "If --vin is provided, that vehicle's stored PIN is used for requests that omit the")
	fmt.Fprintln(out, proxy.PINHeader+" header.")
	fmt.Fprintln(out, nonLocalhostWarning)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	flags.PrintDefaults()
}

func main() {
	config, err := cli.NewConfig(cli.FlagAll)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		os.Exit(1)
	}

	defer func() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}()

	flags.Usage = Usage
	config.RegisterCommandLineFlags(flags)
	if err = flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			err = nil
		}
		return
	}
	if err = readFromEnvironment(); err != nil {
		return
	}
	if err = config.ReadFromEnvironment(); err != nil {
		return
	}

	if httpConfig.verbose {
		log.SetLevel(log.LevelDebug)
	}

	if httpConfig.host != "localhost" {
		fmt.Fprintln(os.Stderr, nonLocalhostWarning)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if config.Metrics, err = vehicle.NewMetrics(registry); err != nil {
		return
	}

	if err = config.LoadCredentials(); err != nil {
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("Logging in")
	acct, err := config.Account(ctx)
	if err != nil {
		return
	}
	config.UpdateCachedToken()
	defer config.UpdateCachedToken()

	log.Debug("Creating proxy")
	p, err := proxy.New(ctx, proxy.FromAccount(acct), registry)
	if err != nil {
		return
	}
	p.Timeout = httpConfig.timeout
	if config.VIN != "" {
		if p.PIN, err = config.PIN(); err != nil {
			return
		}
	}

	addr := fmt.Sprintf("%s:%d", httpConfig.host, httpConfig.port)
	server := &http.Server{Addr: addr}
	if httpConfig.certFilename == "" {
		var certPEM string
		server, certPEM = NewServer(addr)
		log.Info("Using self-signed certificate:\n%s", certPEM)
	}
	server.Handler = p

	// To add more application logic requests, such as client authentication, wrap p in an
	// http.Handler that performs the business logic and invokes p.ServeHTTP for authorized requests.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("Listening on %s", addr)
	if serveErr := server.ListenAndServeTLS(httpConfig.certFilename, httpConfig.keyFilename); !errors.Is(serveErr, http.ErrServerClosed) {
		err = serveErr
		return
	}
	log.Info("Server stopped")
}

// readFromEnvironment applies configuration from environment variables.
// Values are not overwritten.
func readFromEnvironment() error {
	if httpConfig.certFilename == "" {
		httpConfig.certFilename = os.Getenv(EnvTlsCert)
	}

	if httpConfig.keyFilename == "" {
		httpConfig.keyFilename = os.Getenv(EnvTlsKey)
	}

	if httpConfig.host == "localhost" {
		host, ok := os.LookupEnv(EnvHost)
		if ok {
			httpConfig.host = host
		}
	}

	if !httpConfig.verbose {
		if verbose, ok := os.LookupEnv(EnvVerbose); ok {
			httpConfig.verbose = verbose != "false" && verbose != "0"
		}
	}

	var err error
	if httpConfig.port == defaultPort {
		if port, ok := os.LookupEnv(EnvPort); ok {
			httpConfig.port, err = strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid port: %s", port)
			}
		}
	}

	if httpConfig.timeout == proxy.DefaultTimeout {
		if timeoutEnv, ok := os.LookupEnv(EnvTimeout); ok {
			httpConfig.timeout, err = time.ParseDuration(timeoutEnv)
			if err != nil {
				return fmt.Errorf("invalid timeout: %s", timeoutEnv)
			}
		}
	}

	if httpConfig.certFilename != "" && httpConfig.keyFilename == "" {
		return fmt.Errorf("--cert requires --tls-key")
	}

	return nil
}
