package media

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// TunnelConfig describes the SSH hop in front of the media database. An
// empty Addr means the database is reached directly.
type TunnelConfig struct {
	Addr           string `env:"ADDR"`
	User           string `env:"USER"`
	Password       string `env:"PASSWORD"`
	KeyFile        string `env:"KEY_FILE"`
	KnownHostsFile string `env:"KNOWN_HOSTS_FILE"`
}

func (c TunnelConfig) Enabled() bool {
	return c.Addr != ""
}

func (c TunnelConfig) clientConfig(logger *slog.Logger) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if c.KeyFile != "" {
		key, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("ssh tunnel to %s needs a password or key file", c.Addr)
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if c.KnownHostsFile != "" {
		cb, err := knownhosts.New(c.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts: %w", err)
		}
		hostKey = cb
	} else {
		logger.Warn("ssh host key not verified", "addr", c.Addr)
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
	}, nil
}

// openTunnel connects the SSH client whose DialContext carries every
// database connection.
func openTunnel(logger *slog.Logger, c TunnelConfig) (*ssh.Client, error) {
	cfg, err := c.clientConfig(logger)
	if err != nil {
		return nil, err
	}
	logger.Info("opening ssh tunnel", "addr", c.Addr, "user", c.User)
	client, err := ssh.Dial("tcp", c.Addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("dialing ssh %s: %w", c.Addr, err)
	}
	return client, nil
}
