package conf

// Configuration keys
const (
	KeyListenAddr       = "server.listen_addr"
	KeyPort             = "server.port"
	KeyPublicHost       = "server.public_host" // Public IP for passive mode connections
	KeyRootDir          = "server.root_dir"
	KeyHomePattern      = "server.home_pattern" // e.g. "users/%s"
	KeyPassivePortStart = "server.passive_port_start"
	KeyPassivePortEnd   = "server.passive_port_end"
	KeyIdleTimeout      = "server.idle_timeout"
	KeyWelcomeMessage   = "server.welcome_message"
	KeyTLSCertFile      = "server.tls_cert_file"
	KeyTLSKeyFile       = "server.tls_key_file"

	KeyAuthType            = "authentication.type"
	KeyCustomProviderClass = "authentication.provider.custom.class"
	KeyPasswdFile          = "authentication.passwd.file"

	KeyAccessLogPath = "logging.access_log_path"
	KeyAppLogPath    = "logging.app_log_path"
	KeyLogLevel      = "logging.level"

	KeyStatusDir      = "status.dir"
	KeyStatusInterval = "status.interval"
)

var defaults = map[string]string{
	KeyListenAddr:       "0.0.0.0",
	KeyPort:             "2121",
	KeyPassivePortStart: "50000",
	KeyPassivePortEnd:   "50100",
	KeyIdleTimeout:      "300",
	KeyWelcomeMessage:   "Welcome to cftpd",
	KeyLogLevel:         "info",
	KeyStatusInterval:   "60",
}

// pathKeys are resolved against the config file directory when relative
var pathKeys = []string{
	KeyRootDir,
	KeyTLSCertFile,
	KeyTLSKeyFile,
	KeyPasswdFile,
	KeyAccessLogPath,
	KeyAppLogPath,
	KeyStatusDir,
}
