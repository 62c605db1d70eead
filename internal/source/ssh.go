package source

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultSSHConnectTimeout bounds the SSH dial.
const DefaultSSHConnectTimeout = 10 * time.Second

// SSHSource reads a bibliography from a remote host by running cat over SSH.
// Authentication goes through the SSH agent; host keys are checked against
// ~/.ssh/known_hosts.
type SSHSource struct {
	User           string
	Host           string // host:port
	Path           string
	ConnectTimeout time.Duration
}

// NewSSHSource parses ssh://[user@]host[:port]/path.
func NewSSHSource(rawURL string, connectTimeout time.Duration) (*SSHSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ssh URL: %w", err)
	}
	if u.Scheme != "ssh" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrUnsupported, rawURL)
	}
	if u.Path == "" || u.Path == "/" {
		return nil, fmt.Errorf("%w: missing path in %q", ErrUnsupported, rawURL)
	}

	port := u.Port()
	if port == "" {
		port = "22"
	}

	username := u.User.Username()
	if username == "" {
		if cur, err := user.Current(); err == nil {
			username = cur.Username
		}
	}

	if connectTimeout <= 0 {
		connectTimeout = DefaultSSHConnectTimeout
	}

	return &SSHSource{
		User:           username,
		Host:           net.JoinHostPort(u.Hostname(), port),
		Path:           u.Path,
		ConnectTimeout: connectTimeout,
	}, nil
}

func (s *SSHSource) String() string {
	return fmt.Sprintf("ssh://%s@%s%s", s.User, s.Host, s.Path)
}

// Command returns the remote command that prints the document.
func (s *SSHSource) Command() string {
	return "cat -- " + shellQuote(s.Path)
}

// Fetch connects, runs Command and returns its stdout.
func (s *SSHSource) Fetch(ctx context.Context) ([]byte, error) {
	authSock := os.Getenv("SSH_AUTH_SOCK")
	if authSock == "" {
		return nil, fmt.Errorf("SSH agent not running. Start with `eval $(ssh-agent)` and add keys with `ssh-add`")
	}

	agentConn, err := net.Dial("unix", authSock)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to SSH agent at %s: %w", authSock, err)
	}
	defer agentConn.Close()

	signers, err := agent.NewClient(agentConn).Signers()
	if err != nil {
		return nil, fmt.Errorf("getting SSH agent signers: %w", err)
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("SSH agent has no keys. Add keys with `ssh-add`")
	}

	hostKeys, err := knownHostsCallback()
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            s.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKeys,
		Timeout:         s.ConnectTimeout,
	}

	client, err := s.connect(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	// Closing the client unblocks the session if ctx is cancelled mid-read.
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("creating SSH session on %s: %w", s.Host, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	if err := session.Run(s.Command()); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "No such file") {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s)
		}
		return nil, fmt.Errorf("running %q on %s: %w (%s)", s.Command(), s.Host, err, msg)
	}

	data, err := readDocument(&stdout)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s, err)
	}
	return data, nil
}

// connect dials Host and completes the SSH handshake within ConnectTimeout
// or before ctx ends, whichever comes first.
func (s *SSHSource) connect(ctx context.Context, clientConfig *ssh.ClientConfig) (*ssh.Client, error) {
	dialer := net.Dialer{Timeout: s.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrNetwork, s.Host, err)
	}

	deadline := time.Now().Add(s.ConnectTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, s.Host, clientConfig)
	stop()
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: SSH handshake with %s: %v", ErrNetwork, s.Host, err)
	}
	conn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// knownHostsCallback verifies host keys against ~/.ssh/known_hosts.
func knownHostsCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating known_hosts: %w", err)
	}
	path := filepath.Join(home, ".ssh", "known_hosts")
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s (connect once with ssh to record the host key): %w", path, err)
	}
	return cb, nil
}

// shellQuote single-quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
