package main

import (
	"fmt"
	"time"

	"github.com/mmcdole/cftpd/pkg/conf"
	"github.com/mmcdole/cftpd/pkg/ftpserver"
	"github.com/mmcdole/cftpd/pkg/logging"
)

// serverConfig builds the FTP server settings from the loaded configuration
func serverConfig(c *conf.Conf) (*ftpserver.Config, error) {
	port, err := c.GetInt(conf.KeyPort, 2121)
	if err != nil {
		return nil, err
	}
	pasvStart, err := c.GetInt(conf.KeyPassivePortStart, 50000)
	if err != nil {
		return nil, err
	}
	pasvEnd, err := c.GetInt(conf.KeyPassivePortEnd, 50100)
	if err != nil {
		return nil, err
	}
	if pasvStart > pasvEnd {
		return nil, fmt.Errorf("passive port range %d-%d is inverted", pasvStart, pasvEnd)
	}
	idle, err := c.GetDuration(conf.KeyIdleTimeout, 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &ftpserver.Config{
		ListenAddr:           c.GetString(conf.KeyListenAddr, "0.0.0.0"),
		Port:                 port,
		PublicHost:           c.GetString(conf.KeyPublicHost, ""),
		RootDir:              c.GetString(conf.KeyRootDir, ""),
		HomePattern:          c.GetString(conf.KeyHomePattern, ""),
		PassiveTransferPorts: [2]int{pasvStart, pasvEnd},
		IdleTimeout:          idle,
		WelcomeMessage:       c.GetString(conf.KeyWelcomeMessage, ""),
		TLSCertFile:          c.GetString(conf.KeyTLSCertFile, ""),
		TLSKeyFile:           c.GetString(conf.KeyTLSKeyFile, ""),
	}, nil
}

// loggingConfig builds the logger settings. debug forces the debug level.
func loggingConfig(c *conf.Conf, debug bool) (*logging.Config, error) {
	level, err := logging.ParseLevel(c.GetString(conf.KeyLogLevel, string(logging.LogLevelInfo)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", conf.KeyLogLevel, err)
	}
	if debug {
		level = logging.LogLevelDebug
	}
	return &logging.Config{
		AccessLogPath: c.GetString(conf.KeyAccessLogPath, ""),
		AppLogPath:    c.GetString(conf.KeyAppLogPath, ""),
		Level:         level,
	}, nil
}
