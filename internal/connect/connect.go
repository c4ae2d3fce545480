package connect

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/PAPAMICA/wallix-ssh/internal/config"
	"github.com/PAPAMICA/wallix-ssh/internal/history"
	"github.com/PAPAMICA/wallix-ssh/internal/log"
	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

const (
	// interactiveAccount is the alternate login identity used instead of
	// the configured service username.
	interactiveAccount = "Interactive"

	// remoteTempDir is where deployed files land on the target.
	remoteTempDir = "/tmp/"

	// remoteRCFile, when present in the deploy list, becomes the remote
	// shell's rc file.
	remoteRCFile = ".bashrc_remote"
)

// Connector builds and runs the remote-shell command line through the
// bastion, optionally pushing a bundle of local dotfiles inline.
type Connector struct {
	cfg     *config.Config
	history *history.Store

	// Exec launches the foreground subprocess with the caller's stdio.
	// Swappable in tests.
	Exec func(name string, args ...string) error
}

func New(cfg *config.Config, hist *history.Store) *Connector {
	return &Connector{
		cfg:     cfg,
		history: hist,
		Exec:    runForeground,
	}
}

func runForeground(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Connect records the attempt in history, then runs ssh in the foreground
// until the remote session ends. The attempt is recorded whether or not
// the subprocess starts; the subprocess exit status is not interpreted
// (connection drop, logout and shell error are indistinguishable).
func (c *Connector) Connect(device model.Device, interactive, noDeploy bool) {
	log.Info("Connecting", "device", device.Name)
	c.history.Record(device)

	login := c.cfg.Username
	if interactive {
		login = interactiveAccount
	}
	target := fmt.Sprintf("%s@%s:SSH:%s@%s", login, device.Name, c.cfg.Username, c.cfg.BastionHost)
	args := []string{"-tt", "-A", "-p", "22", target}

	if !noDeploy && !interactive {
		// The remote command travels as a single argv element, so no
		// local shell ever re-parses the payload.
		args = append(args, c.remoteCommand())
	}

	_ = c.Exec("ssh", args...)
}

// remoteCommand folds the deploy files into one remote shell line: each
// file is written to the remote temp dir by inline base64+gunzip, then the
// login shell starts, with the deployed rc file when there is one.
func (c *Connector) remoteCommand() string {
	var segments []string
	deployedRC := false

	for _, name := range c.cfg.DeployFiles {
		payload, err := encodeFile(filepath.Join(c.cfg.DeployDir, name))
		if err != nil {
			// A single unreadable file never aborts the connection.
			log.Error("Skipping deploy file", "file", name, "error", err)
			continue
		}
		segments = append(segments,
			fmt.Sprintf("echo '%s' | base64 -d | gunzip > %s%s", payload, remoteTempDir, name))
		if name == remoteRCFile {
			deployedRC = true
		}
	}

	if deployedRC {
		segments = append(segments, "bash --rcfile "+remoteTempDir+remoteRCFile)
	} else {
		segments = append(segments, "bash -l")
	}
	return strings.Join(segments, " && ")
}

// encodeFile reads a local file and returns its gzip-compressed,
// base64-encoded content.
func encodeFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(content); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
