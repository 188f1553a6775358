// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

// package deploy provides functionality for connecting to remote hosts via
// SSH and appending selected public keys to their authorized_keys files.
package deploy // import "github.com/toeirei/keypick/internal/deploy"

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"github.com/toeirei/keypick/internal/db"
	"github.com/toeirei/keypick/internal/keysource"
	"github.com/toeirei/keypick/internal/model"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// sshClientIface is the minimal surface of *ssh.Client the Deployer needs;
// it exists so tests can substitute a fake.
type sshClientIface interface {
	Close() error
}

// sftpRaw is the minimal surface of *sftp.Client the Deployer needs.
type sftpRaw interface {
	Mkdir(path string) error
	Chmod(path string, mode os.FileMode) error
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	Rename(oldname, newname string) error
	Remove(path string) error
	Close() error
}

// Test seams: production wiring dials real SSH/SFTP connections.
var (
	sshDial = func(network, addr string, config *ssh.ClientConfig) (sshClientIface, error) {
		return ssh.Dial(network, addr, config)
	}
	newSftpClient = func(c sshClientIface) (sftpRaw, error) {
		client, ok := c.(*ssh.Client)
		if !ok {
			return nil, fmt.Errorf("internal error: not an ssh client")
		}
		raw, err := sftp.NewClient(client)
		if err != nil {
			return nil, err
		}
		return &sftpAdapter{raw}, nil
	}
	sshAgentGetter = func() agent.Agent { return keysource.Agent() }
)

// sftpAdapter narrows *sftp.Client to the sftpRaw interface.
type sftpAdapter struct{ c *sftp.Client }

func (a *sftpAdapter) Mkdir(p string) error                     { return a.c.Mkdir(p) }
func (a *sftpAdapter) Chmod(p string, mode os.FileMode) error   { return a.c.Chmod(p, mode) }
func (a *sftpAdapter) Create(p string) (io.WriteCloser, error)  { return a.c.Create(p) }
func (a *sftpAdapter) Open(p string) (io.ReadCloser, error)     { return a.c.Open(p) }
func (a *sftpAdapter) Rename(o, n string) error                 { return a.c.Rename(o, n) }
func (a *sftpAdapter) Remove(p string) error                    { return a.c.Remove(p) }
func (a *sftpAdapter) Close() error                             { return a.c.Close() }

// Deployer handles the connection and key deployment to a remote host.
type Deployer struct {
	client sshClientIface
	sftp   sftpRaw
}

// NewDeployer connects to target's host, authenticating with the SSH agent
// and verifying the host key against the pinned known-hosts store.
func NewDeployer(target model.Target) (*Deployer, error) {
	hostKeyCallback := func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// The hostname passed to the callback can include the port; strip it
		// so the known-hosts lookup matches what trust-host stored.
		host, _, err := net.SplitHostPort(hostname)
		if err != nil {
			host = hostname
		}

		presentedKey := string(ssh.MarshalAuthorizedKey(key))

		knownKey, err := db.GetKnownHostKey(host)
		if err != nil {
			return fmt.Errorf("failed to query known_hosts store: %w", err)
		}
		if knownKey == "" {
			return fmt.Errorf("unknown host key for %s. run 'keypick trust-host %s' to add it", host, host)
		}
		if knownKey != presentedKey {
			return fmt.Errorf("!!! HOST KEY MISMATCH FOR %s !!!\nRemote key presented: %s\nThis could be a man-in-the-middle attack", host, presentedKey)
		}
		return nil
	}

	agentClient := sshAgentGetter()
	if agentClient == nil {
		return nil, fmt.Errorf("no ssh agent available for authentication")
	}

	addr := target.Hostname
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	config := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}

	client, err := sshDial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("connection to %s failed: %w", target, err)
	}

	sftpClient, err := newSftpClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	return &Deployer{client: client, sftp: sftpClient}, nil
}

// GetAuthorizedKeys reads the content of the remote authorized_keys file.
// A missing file is not an error; it returns empty content.
func (d *Deployer) GetAuthorizedKeys() ([]byte, error) {
	finalPath := ".ssh/authorized_keys"
	f, err := d.sftp.Open(finalPath)
	if err != nil {
		// Only a genuinely missing file means a fresh account. Any other
		// failure (permissions, broken session) must not be mistaken for
		// empty content: the merge would then clobber the existing keys.
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open remote file %s: %w", finalPath, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote file %s: %w", finalPath, err)
	}
	return content, nil
}

// AppendKeys merges the selected identities into the remote authorized_keys
// file, skipping keys already present, and writes the result atomically via
// a temporary file. It returns the identities actually added.
func (d *Deployer) AppendKeys(identities []model.Identity) ([]model.Identity, error) {
	existing, err := d.GetAuthorizedKeys()
	if err != nil {
		return nil, err
	}

	content, added := MergeAuthorizedKeys(string(existing), identities)
	if len(added) == 0 {
		return nil, nil
	}

	if err := d.writeAuthorizedKeys(content); err != nil {
		return nil, err
	}
	return added, nil
}

// writeAuthorizedKeys uploads content and moves it into place atomically.
// This uses a pure-SFTP method to be compatible with restricted keys
// (e.g., command="internal-sftp").
func (d *Deployer) writeAuthorizedKeys(content string) error {
	sshDir := ".ssh"
	_ = d.sftp.Mkdir(sshDir) // Ignore error if it already exists.
	if err := d.sftp.Chmod(sshDir, 0700); err != nil {
		return fmt.Errorf("failed to chmod .ssh directory: %w", err)
	}

	tmpPath := path.Join(sshDir, fmt.Sprintf("authorized_keys.keypick.%d", time.Now().UnixNano()))
	f, err := d.sftp.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file on remote: %w", err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		f.Close()
		_ = d.sftp.Remove(tmpPath)
		return fmt.Errorf("failed to write to temporary file on remote: %w", err)
	}
	f.Close()

	if err := d.sftp.Chmod(tmpPath, 0600); err != nil {
		_ = d.sftp.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temporary file: %w", err)
	}

	finalPath := path.Join(sshDir, "authorized_keys")
	if err := d.sftp.Rename(tmpPath, finalPath); err != nil {
		_ = d.sftp.Remove(tmpPath)
		return fmt.Errorf("failed to atomically rename authorized_keys file: %w", err)
	}

	return nil
}

// Close closes the underlying SSH and SFTP clients.
func (d *Deployer) Close() {
	if d.sftp != nil {
		d.sftp.Close()
	}
	if d.client != nil {
		d.client.Close()
	}
}

// MergeAuthorizedKeys returns existing plus any identities whose key data is
// not already present, and the list of identities that were appended.
// Existing lines, including comments and options, are preserved untouched.
func MergeAuthorizedKeys(existing string, identities []model.Identity) (string, []model.Identity) {
	present := make(map[string]struct{})
	for _, line := range strings.Split(existing, "\n") {
		fields := strings.Fields(line)
		// The base64 key data is the only reliable identity of a line.
		for _, f := range fields {
			if len(f) > 20 && strings.HasPrefix(f, "AAAA") {
				present[f] = struct{}{}
			}
		}
	}

	var added []model.Identity
	var b strings.Builder
	b.WriteString(existing)
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		b.WriteString("\n")
	}
	for _, id := range identities {
		if _, ok := present[id.KeyData]; ok {
			continue
		}
		present[id.KeyData] = struct{}{}
		b.WriteString(id.AuthorizedKeyLine())
		b.WriteString("\n")
		added = append(added, id)
	}
	return b.String(), added
}

// GetRemoteHostKey connects to a host just to retrieve its public key.
func GetRemoteHostKey(host string) (ssh.PublicKey, error) {
	keyChan := make(chan ssh.PublicKey, 1)

	config := &ssh.ClientConfig{
		// No authentication needed, just start the handshake.
		User: "keypick-probe",
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			keyChan <- key
			// Return a specific error to gracefully stop the handshake.
			return fmt.Errorf("keypick: successfully retrieved host key")
		},
		Timeout: 5 * time.Second,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	// ssh.Dial is expected to fail with the callback's sentinel error.
	_, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if strings.Contains(err.Error(), "keypick: successfully retrieved host key") {
			return <-keyChan, nil
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	return nil, fmt.Errorf("ssh.Dial succeeded unexpectedly, could not retrieve key")
}
