// Package transport provides the driver.Transport implementations: a real
// in-process SSH PTY session built on golang.org/x/crypto/ssh, and an
// in-memory capture double for tests.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/internal/util"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

// SSHTransport opens a single interactive PTY shell session against one
// device and exposes it as a driver.Transport, per spec.md §6: the
// session's stdout (with stderr merged into the same PTY stream) is
// delivered to HandleData one read at a time, and its stdin is fed by Send.
type SSHTransport struct {
	mu      sync.Mutex
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	onData  func([]byte)
	onClose func(error)

	kind string
	host string

	closed bool
}

// Dial opens a TCP connection, negotiates SSH, requests a PTY, starts an
// interactive shell, and begins streaming its output to onData. onClose is
// invoked at most once, when the session ends other than through Close; a
// failed Send only returns false and does not invoke it. The caller
// (internal/client) reacts by calling the driver's Disconnect.
func Dial(ctx context.Context, cfg config.DeviceConfig, sshCfg config.SSHConfig, onData func([]byte), onClose func(error)) (*SSHTransport, error) {
	clientConfig, err := buildClientConfig(cfg, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: sshCfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to dial %s: %w", address, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: ssh handshake with %s failed: %w", address, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("transport: failed to open session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	term, width, height := sshCfg.TermType, sshCfg.TermWidth, sshCfg.TermHeight
	if term == "" {
		term = "vt100"
	}
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	if err := session.RequestPty(term, height, width, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: failed to request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: failed to open stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: failed to open stdout: %w", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("transport: failed to start shell: %w", err)
	}

	t := &SSHTransport{client: client, session: session, stdin: stdin, onData: onData, onClose: onClose, kind: cfg.Kind, host: cfg.Host}
	go t.readLoop(stdout)
	go t.waitLoop()
	if sshCfg.KeepAlive > 0 {
		go t.keepAlive(ctx, sshCfg.KeepAlive)
	}
	return t, nil
}

func buildClientConfig(cfg config.DeviceConfig, sshCfg config.SSHConfig) (*ssh.ClientConfig, error) {
	clientConfig := &ssh.ClientConfig{
		User:    cfg.Username,
		Timeout: sshCfg.ConnectTimeout,
		Config: ssh.Config{
			KeyExchanges: []string{
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group-exchange-sha256",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"ecdh-sha2-nistp521",
			},
			Ciphers: []string{
				"aes128-ctr", "aes192-ctr", "aes256-ctr",
				"aes128-gcm@openssh.com", "aes256-gcm@openssh.com",
				"aes128-cbc", "aes192-cbc", "aes256-cbc",
			},
		},
		HostKeyAlgorithms: []string{
			"ssh-rsa", "rsa-sha2-256", "rsa-sha2-512",
			"ecdsa-sha2-nistp256", "ecdsa-sha2-nistp384", "ecdsa-sha2-nistp521",
		},
	}

	if cfg.StrictHostKeyChecking {
		// A device whose host key we are expected to verify but for which
		// no known_hosts source is wired yet; fail closed rather than
		// silently trusting it.
		return nil, fmt.Errorf("strict host key checking requested for %s but no known_hosts source is configured", cfg.Host)
	}
	clientConfig.HostKeyCallback = ssh.InsecureIgnoreHostKey()

	var auths []ssh.AuthMethod
	if cfg.Password != "" {
		auths = append(auths, ssh.Password(cfg.Password), ssh.KeyboardInteractive(
			func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = cfg.Password
				}
				return answers, nil
			}))
	}
	if cfg.KeyPath != "" {
		signer, err := loadSigner(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load key %s: %w", cfg.KeyPath, err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if len(auths) == 0 {
		return nil, fmt.Errorf("no authentication method configured for %s", cfg.Host)
	}
	clientConfig.Auth = auths
	return clientConfig, nil
}

func loadSigner(keyPath string) (ssh.Signer, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(raw)
}

// readLoop streams the session's output to onData, normalizing each chunk
// to UTF-8 first: some devices emit legacy-encoded bytes (banners,
// hostnames, descriptions set in a non-English locale), and the prompt
// matcher and output extractor downstream both assume UTF-8-clean text.
func (t *SSHTransport) readLoop(r io.Reader) {
	buf := make([]byte, 4096)
	reader := bufio.NewReader(r)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			t.onData(util.NormalizeDeviceOutput(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (t *SSHTransport) waitLoop() {
	err := t.session.Wait()
	t.mu.Lock()
	already := t.closed
	t.closed = true
	t.mu.Unlock()
	if !already {
		t.onClose(err)
	}
}

func (t *SSHTransport) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			closed := t.closed
			client := t.client
			t.mu.Unlock()
			if closed {
				return
			}
			if _, _, err := client.SendRequest("keepalive@netcli", true, nil); err != nil {
				return
			}
		}
	}
}

// Send implements driver.Transport. It returns false once the session has
// ended or stdin has been closed.
func (t *SSHTransport) Send(data []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	if _, err := t.stdin.Write(data); err != nil {
		logger.Device(t.kind, t.host).WithError(err).Warn("transport: write failed")
		return false
	}
	return true
}

// Close terminates the session and the underlying SSH connection.
func (t *SSHTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	_ = t.stdin.Close()
	_ = t.session.Close()
	return t.client.Close()
}
