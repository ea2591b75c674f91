package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/cftpd/pkg/authentication"
	"github.com/mmcdole/cftpd/pkg/conf"
	"github.com/mmcdole/cftpd/pkg/ftpserver"
	"github.com/mmcdole/cftpd/pkg/logging"
	"github.com/mmcdole/cftpd/pkg/status"
)

var version = "dev" // Will be set during build

type options struct {
	cfgFile     string
	showVersion bool
	debug       bool
}

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "cftpd",
		Short:         "FTP server with pluggable authentication",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `cftpd - FTP server with pluggable authentication

Logins are verified by the provider selected in the configuration file:

authentication:
  type: CUSTOM             # SIMPLE accepts any credentials
  provider:
    custom:
      class: passwd-file   # or http-api, allow-all, plugin:/path/to/auth.so#NewProvider
  passwd:
    file: users.passwd

Any key can be overridden from the environment, e.g.
CFTPD_AUTHENTICATION_PROVIDER_CUSTOM_CLASS=http-api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "cftpd %s\n", version)
				return nil
			}

			c, err := loadConfig(opts.cfgFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c, opts.debug)
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "path to config file (required)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.Flags().BoolVarP(&opts.showVersion, "version", "v", false, "show version information")

	root.AddCommand(newCheckCmd(opts), newProvidersCmd())
	return root
}

func newCheckCmd(opts *options) *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build the configured authentication provider and optionally try a login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.debug {
				logCfg, err := loggingConfig(c, true)
				if err != nil {
					return err
				}
				if err := logging.Initialize(logCfg); err != nil {
					return fmt.Errorf("failed to initialize logging: %w", err)
				}
			}

			provider, err := buildProvider(c, afero.NewOsFs())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "provider: %s\n", provider.Identifier())
			if user == "" {
				return nil
			}

			if err := provider.Authenticate(user, password); err != nil {
				fmt.Fprintf(out, "authentication failed: %v\n", err)
				return err
			}
			fmt.Fprintf(out, "authenticated: %s\n", user)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "user name to authenticate")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password to authenticate with")
	return cmd
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the authentication provider identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := builtinRegistry(nil, nil)
			out := cmd.OutOrStdout()
			for _, name := range reg.Names() {
				if aliases := reg.Aliases(name); len(aliases) > 0 {
					fmt.Fprintf(out, "%s (aliases: %s)\n", name, strings.Join(aliases, ", "))
					continue
				}
				fmt.Fprintln(out, name)
			}
			fmt.Fprintf(out, "%s<path.so>[#%s]\n", authentication.PluginScheme, authentication.DefaultPluginSymbol)
			return nil
		},
	}
}

func loadConfig(path string) (*conf.Conf, error) {
	if path == "" {
		return nil, fmt.Errorf("config file is required (use --config)")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	c, err := conf.Load(afero.NewOsFs(), abs)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return c, nil
}

// builtinRegistry copies the default registry and adds the bundled providers,
// so providers registered by linked-in packages stay selectable.
func builtinRegistry(settings authentication.Settings, fs afero.Fs) *authentication.Registry {
	reg := authentication.DefaultRegistry().Clone()
	authentication.RegisterBuiltins(reg, settings, fs)
	return reg
}

// buildProvider constructs the configured provider once. Any error is fatal.
func buildProvider(c *conf.Conf, fs afero.Fs) (*authentication.Instrumented, error) {
	p, err := authentication.NewProvider(c, builtinRegistry(c, fs))
	if err != nil {
		return nil, err
	}
	return authentication.Instrument(authentication.Describe(p), p), nil
}

func newStatusWriter(c *conf.Conf, server *ftpserver.Server, provider *authentication.Instrumented) (*status.Writer, error) {
	dir := c.GetString(conf.KeyStatusDir, "")
	if dir == "" {
		return nil, nil
	}
	interval, err := c.GetDuration(conf.KeyStatusInterval, time.Minute)
	if err != nil {
		return nil, err
	}

	w, err := status.New(dir, interval, version)
	if err != nil {
		return nil, err
	}
	w.SetMetricsProvider(server)
	w.SetAuthStats(provider)
	w.SetProvider(provider.Identifier())
	return w, nil
}

func serve(ctx context.Context, c *conf.Conf, debug bool) error {
	logCfg, err := loggingConfig(c, debug)
	if err != nil {
		return err
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	provider, err := buildProvider(c, afero.NewOsFs())
	if err != nil {
		logging.App.Error("Failed to build authentication provider", "error", err)
		return err
	}

	srvCfg, err := serverConfig(c)
	if err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	server, err := ftpserver.New(srvCfg, provider)
	if err != nil {
		return fmt.Errorf("failed to create FTP server: %w", err)
	}

	if err := server.Listen(); err != nil {
		return err
	}

	statusWriter, err := newStatusWriter(c, server, provider)
	if err != nil {
		return fmt.Errorf("failed to create status writer: %w", err)
	}
	if statusWriter != nil {
		if err := statusWriter.WriteStartFile(); err != nil {
			logging.App.Error("Failed to write start file", "error", err)
		}
		statusWriter.StartHeartbeat()
	}

	logging.App.Info("Starting cftpd", "version", version, "provider", provider.Identifier())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if err := server.Serve(); err != nil {
			return fmt.Errorf("ftp server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := server.Stop(); err != nil {
			logging.App.Debug("FTP server stop", "error", err)
		}
		return nil
	})

	err = g.Wait()

	reason := "shutdown"
	if err != nil {
		reason = err.Error()
		logging.App.Error("FTP server failed", "error", err)
	}
	logging.App.Info("Stopped cftpd", "reason", reason,
		"auth_successes", provider.Successes(), "auth_failures", provider.Failures())

	if statusWriter != nil {
		if serr := statusWriter.Shutdown(reason); serr != nil {
			logging.App.Error("Failed to write stop file", "error", serr)
		}
	}
	return err
}
