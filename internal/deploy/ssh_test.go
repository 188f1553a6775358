// Copyright (c) 2025 ToeiRei
// Keypick - interactive ssh-copy-id helper
// This source code is licensed under the MIT license found in the LICENSE file.

package deploy

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/toeirei/keypick/internal/model"
	"github.com/toeirei/keypick/internal/testutil"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// mockSftp is an in-memory sftpRaw implementation recording remote files.
type mockSftp struct {
	files   map[string][]byte
	renamed map[string]string
	failOn  string
}

func newMockSftp() *mockSftp {
	return &mockSftp{files: map[string][]byte{}, renamed: map[string]string{}}
}

type mockFile struct {
	buf  bytes.Buffer
	done func([]byte)
}

func (f *mockFile) Write(p []byte) (int, error) { return f.buf.Write(p) }
func (f *mockFile) Close() error                { f.done(f.buf.Bytes()); return nil }

func (m *mockSftp) Mkdir(p string) error { return nil }
func (m *mockSftp) Chmod(p string, mode os.FileMode) error {
	if m.failOn == "chmod:"+p {
		return fmt.Errorf("chmod denied")
	}
	return nil
}
func (m *mockSftp) Create(p string) (io.WriteCloser, error) {
	if m.failOn == "create" {
		return nil, fmt.Errorf("create denied")
	}
	return &mockFile{done: func(b []byte) { m.files[p] = b }}, nil
}
func (m *mockSftp) Open(p string) (io.ReadCloser, error) {
	if m.failOn == "open" {
		return nil, fmt.Errorf("permission denied")
	}
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", p, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
func (m *mockSftp) Rename(o, n string) error {
	m.files[n] = m.files[o]
	delete(m.files, o)
	m.renamed[o] = n
	return nil
}
func (m *mockSftp) Remove(p string) error { delete(m.files, p); return nil }
func (m *mockSftp) Close() error          { return nil }

func testIdentity(comment string) model.Identity {
	return model.Identity{
		Algorithm:   "ssh-ed25519",
		KeyData:     "AAAAC3NzaC1lZDI1NTE5AAAAIGJ8q2XGkGVNJMbEbqUrrSDxkPkPYBd2ZJWXEvNV1a" + comment[:1],
		Comment:     comment,
		Fingerprint: "SHA256:" + comment,
	}
}

func TestMergeAuthorizedKeysAppendsMissing(t *testing.T) {
	id1 := testIdentity("alpha")
	id2 := testIdentity("beta")
	existing := id1.AuthorizedKeyLine() + "\n"

	content, added := MergeAuthorizedKeys(existing, []model.Identity{id1, id2})
	if len(added) != 1 || added[0].Comment != "beta" {
		t.Fatalf("added = %+v, want only beta", added)
	}
	if !strings.Contains(content, id1.AuthorizedKeyLine()) || !strings.Contains(content, id2.AuthorizedKeyLine()) {
		t.Errorf("merged content missing lines:\n%s", content)
	}
	if strings.Count(content, id1.KeyData) != 1 {
		t.Error("existing key duplicated")
	}
}

func TestMergeAuthorizedKeysPreservesOptionsLines(t *testing.T) {
	id := testIdentity("alpha")
	existing := `command="/usr/bin/true",no-pty ` + id.AuthorizedKeyLine() + "\n"

	content, added := MergeAuthorizedKeys(existing, []model.Identity{id})
	if len(added) != 0 {
		t.Fatalf("key behind options line re-added: %+v", added)
	}
	if !strings.HasPrefix(content, `command=`) {
		t.Errorf("options line mangled:\n%s", content)
	}
}

func TestMergeAuthorizedKeysEmptyExisting(t *testing.T) {
	id := testIdentity("alpha")
	content, added := MergeAuthorizedKeys("", []model.Identity{id})
	if len(added) != 1 {
		t.Fatalf("added = %+v, want one", added)
	}
	if content != id.AuthorizedKeyLine()+"\n" {
		t.Errorf("content = %q", content)
	}
}

func TestAppendKeysWritesAtomically(t *testing.T) {
	m := newMockSftp()
	d := &Deployer{client: testutil.NewFakeSSHClient(), sftp: m}

	added, err := d.AppendKeys([]model.Identity{testIdentity("alpha")})
	if err != nil {
		t.Fatalf("AppendKeys: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("added = %+v, want one", added)
	}

	content, ok := m.files[".ssh/authorized_keys"]
	if !ok {
		t.Fatal("authorized_keys not written")
	}
	if !strings.Contains(string(content), "alpha") {
		t.Errorf("content = %q", content)
	}

	// The write must have gone through a temporary file.
	viaTmp := false
	for o := range m.renamed {
		if strings.Contains(o, "authorized_keys.keypick.") {
			viaTmp = true
		}
	}
	if !viaTmp {
		t.Error("write skipped the temporary file rename")
	}
}

func TestAppendKeysNoopWhenAllPresent(t *testing.T) {
	id := testIdentity("alpha")
	m := newMockSftp()
	m.files[".ssh/authorized_keys"] = []byte(id.AuthorizedKeyLine() + "\n")
	d := &Deployer{client: testutil.NewFakeSSHClient(), sftp: m}

	added, err := d.AppendKeys([]model.Identity{id})
	if err != nil {
		t.Fatalf("AppendKeys: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added = %+v, want none", added)
	}
	if len(m.renamed) != 0 {
		t.Error("no-op deploy still rewrote the remote file")
	}
}

func TestAppendKeysFailsWhenRemoteFileUnreadable(t *testing.T) {
	existing := testIdentity("existing")
	m := newMockSftp()
	m.files[".ssh/authorized_keys"] = []byte(existing.AuthorizedKeyLine() + "\n")
	m.failOn = "open"
	d := &Deployer{client: testutil.NewFakeSSHClient(), sftp: m}

	// A read failure that is not "file missing" must abort the deploy:
	// merging against empty content would replace the remote file and
	// drop every key already on the host.
	if _, err := d.AppendKeys([]model.Identity{testIdentity("alpha")}); err == nil {
		t.Fatal("expected error when authorized_keys cannot be read")
	}
	if got := string(m.files[".ssh/authorized_keys"]); got != existing.AuthorizedKeyLine()+"\n" {
		t.Errorf("remote file rewritten after failed read: %q", got)
	}
	if len(m.renamed) != 0 {
		t.Error("failed read still wrote through the temporary file")
	}
}

func TestNewDeployerRequiresAgent(t *testing.T) {
	orig := sshAgentGetter
	sshAgentGetter = func() agent.Agent { return nil }
	defer func() { sshAgentGetter = orig }()

	if _, err := NewDeployer(model.Target{Username: "u", Hostname: "h"}); err == nil {
		t.Fatal("expected error without an agent")
	}
}

func TestNewDeployerAgentAuth(t *testing.T) {
	origDial := sshDial
	origSftp := newSftpClient
	origAgent := sshAgentGetter
	defer func() { sshDial = origDial; newSftpClient = origSftp; sshAgentGetter = origAgent }()

	keyring := agent.NewKeyring()
	_, priv, _ := ed25519.GenerateKey(nil)
	if err := keyring.Add(agent.AddedKey{PrivateKey: priv, Comment: "test"}); err != nil {
		t.Fatalf("failed to add key to agent: %v", err)
	}
	sshAgentGetter = func() agent.Agent { return keyring }

	fakeClient := testutil.NewFakeSSHClient()
	var dialedAddr string
	sshDial = func(network, addr string, cfg *ssh.ClientConfig) (sshClientIface, error) {
		dialedAddr = addr
		if cfg.User != "deploy" {
			t.Errorf("user = %q, want deploy", cfg.User)
		}
		return fakeClient, nil
	}
	newSftpClient = func(c sshClientIface) (sftpRaw, error) { return newMockSftp(), nil }

	d, err := NewDeployer(model.Target{Username: "deploy", Hostname: "server-01"})
	if err != nil {
		t.Fatalf("NewDeployer: %v", err)
	}

	if dialedAddr != "server-01:22" {
		t.Errorf("dialed %q, want server-01:22 (default port added)", dialedAddr)
	}

	d.Close()
	if !fakeClient.Closed() {
		t.Error("deployer did not close the underlying SSH connection")
	}
}

func TestComposeCopyID(t *testing.T) {
	target := model.Target{Username: "deploy", Hostname: "server-01"}
	withFile := testIdentity("alpha")
	withFile.Path = "/home/u/.ssh/id_ed25519.pub"
	agentOnlyID := testIdentity("beta")

	commands, agentOnly := ComposeCopyID("", target, []model.Identity{withFile, agentOnlyID})
	if len(commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(commands))
	}
	want := []string{"ssh-copy-id", "-i", "/home/u/.ssh/id_ed25519.pub", "deploy@server-01"}
	for i, arg := range want {
		if commands[0][i] != arg {
			t.Errorf("argv[%d] = %q, want %q", i, commands[0][i], arg)
		}
	}
	if len(agentOnly) != 1 || agentOnly[0].Comment != "beta" {
		t.Errorf("agentOnly = %+v", agentOnly)
	}
}

func TestFormatCommands(t *testing.T) {
	out := FormatCommands([][]string{
		{"ssh-copy-id", "-i", "a.pub", "u@h"},
		{"ssh-copy-id", "-i", "b.pub", "u@h"},
	})
	if out != "ssh-copy-id -i a.pub u@h\nssh-copy-id -i b.pub u@h" {
		t.Errorf("unexpected rendering:\n%s", out)
	}
}
