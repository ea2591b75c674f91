package ftpserver

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	ftpserverlib "github.com/fclairamb/ftpserverlib"
	"github.com/spf13/afero"

	"github.com/mmcdole/cftpd/pkg/authentication"
	"github.com/mmcdole/cftpd/pkg/logging"
)

// Config holds FTP server configuration
type Config struct {
	ListenAddr           string
	Port                 int
	PublicHost           string // Public IP for passive mode connections
	RootDir              string // Root directory that FTP users will be restricted to
	HomePattern          string // Pattern for user home directories (e.g., "users/%s" where %s is username)
	PassiveTransferPorts [2]int
	IdleTimeout          time.Duration
	WelcomeMessage       string
	TLSCertFile          string
	TLSKeyFile           string
}

// Server wraps the FTP server, delegating logins to an authentication.Provider
type Server struct {
	config    *Config
	provider  authentication.Provider
	server    *ftpserverlib.FtpServer
	fs        afero.Fs
	tlsConfig *tls.Config

	startTime   time.Time
	activeConns atomic.Int32
}

// New creates a new FTP server. The provider must already be constructed.
func New(config *Config, provider authentication.Provider) (*Server, error) {
	return newServer(config, provider, afero.NewOsFs())
}

func newServer(config *Config, provider authentication.Provider, base afero.Fs) (*Server, error) {
	if provider == nil {
		return nil, errors.New("authentication provider is required")
	}
	if config.RootDir == "" {
		return nil, errors.New("root directory is required")
	}
	fi, err := base.Stat(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("root directory does not exist: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("root directory %s is not a directory", config.RootDir)
	}
	if config.HomePattern != "" && strings.Count(config.HomePattern, "%s") != 1 {
		return nil, fmt.Errorf("home pattern %q must contain exactly one %%s", config.HomePattern)
	}

	tlsConfig, err := loadTLSConfig(config.TLSCertFile, config.TLSKeyFile)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		provider:  provider,
		fs:        afero.NewBasePathFs(base, config.RootDir),
		tlsConfig: tlsConfig,
		startTime: time.Now(),
	}

	s.server = ftpserverlib.NewFtpServer(&ftpDriver{server: s})
	s.server.Logger = logging.App
	return s, nil
}

func loadTLSConfig(certFile, keyFile string) (*tls.Config, error) {
	if certFile == "" && keyFile == "" {
		return nil, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, errors.New("both TLS certificate and key files must be set")
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading TLS key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Listen binds the control connection listener without accepting clients yet
func (s *Server) Listen() error {
	if err := s.server.Listen(); err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr(), err)
	}
	logging.App.Info("Listening", "addr", s.addr(), "root", s.config.RootDir, "tls", s.tlsConfig != nil)
	return nil
}

// Serve accepts clients until Stop is called. Listen must have succeeded.
func (s *Server) Serve() error {
	return s.server.Serve()
}

// Stop stops the server
func (s *Server) Stop() error {
	return s.server.Stop()
}

// GetActiveConnections implements status.MetricsProvider
func (s *Server) GetActiveConnections() int32 {
	return s.activeConns.Load()
}

// GetStartTime implements status.MetricsProvider
func (s *Server) GetStartTime() time.Time {
	return s.startTime
}

func (s *Server) addr() string {
	return fmt.Sprintf("%s:%d", s.config.ListenAddr, s.config.Port)
}

// homePath returns the user's home relative to the root, or "" without a pattern
func (s *Server) homePath(user string) (string, error) {
	if s.config.HomePattern == "" {
		return "", nil
	}
	if user == "" || strings.ContainsAny(user, `/\`) || user == "." || user == ".." {
		return "", fmt.Errorf("invalid user name %q", user)
	}
	return filepath.Clean(fmt.Sprintf(s.config.HomePattern, user)), nil
}

// ftpDriver implements ftpserverlib.MainDriver
type ftpDriver struct {
	server *Server
}

// GetSettings returns server settings
func (d *ftpDriver) GetSettings() (*ftpserverlib.Settings, error) {
	cfg := d.server.config
	settings := &ftpserverlib.Settings{
		ListenAddr: d.server.addr(),
		PublicHost: cfg.PublicHost,
		PassiveTransferPortRange: &ftpserverlib.PortRange{
			Start: cfg.PassiveTransferPorts[0],
			End:   cfg.PassiveTransferPorts[1],
		},
		IdleTimeout: int(cfg.IdleTimeout / time.Second),
	}
	return settings, nil
}

// ClientConnected is called when a client connects
func (d *ftpDriver) ClientConnected(cc ftpserverlib.ClientContext) (string, error) {
	n := d.server.activeConns.Add(1)
	logging.App.Debug("Client connected", "client", cc.ID(), "addr", cc.RemoteAddr(), "active", n)

	msg := d.server.config.WelcomeMessage
	if msg == "" {
		msg = "Welcome"
	}
	return msg, nil
}

// ClientDisconnected is called when a client disconnects
func (d *ftpDriver) ClientDisconnected(cc ftpserverlib.ClientContext) {
	n := d.server.activeConns.Add(-1)
	logging.App.Debug("Client disconnected", "client", cc.ID(), "active", n)
}

// AuthUser hands the credentials to the provider and, on success, returns a
// filesystem rooted at the server root with the user's home as working directory
func (d *ftpDriver) AuthUser(cc ftpserverlib.ClientContext, user, pass string) (ftpserverlib.ClientDriver, error) {
	if err := d.server.provider.Authenticate(user, pass); err != nil {
		if !authentication.IsAuthenticationFailure(err) {
			logging.App.Error("Authentication provider failed", "user", user, "addr", cc.RemoteAddr(), "error", err)
		}
		return nil, err
	}

	home, err := d.server.homePath(user)
	if err != nil {
		return nil, err
	}

	if home != "" {
		if err := d.server.fs.MkdirAll(home, 0755); err != nil {
			logging.App.Error("Failed to create home directory", "user", user, "home", home, "error", err)
			return nil, fmt.Errorf("failed to create home directory: %w", err)
		}
		cc.SetPath("/" + filepath.ToSlash(home))
	} else {
		cc.SetPath("/")
	}

	logging.App.Info("User logged in", "user", user, "addr", cc.RemoteAddr(), "home", "/"+home)
	return d.server.fs, nil
}

// GetTLSConfig returns TLS config
func (d *ftpDriver) GetTLSConfig() (*tls.Config, error) {
	if d.server.tlsConfig == nil {
		return nil, os.ErrNotExist
	}
	return d.server.tlsConfig, nil
}
