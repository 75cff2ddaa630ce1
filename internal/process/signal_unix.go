//go:build !windows

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureCommand puts the child in its own process group so terminal
// signals aimed at the daemon do not reach it directly, and so the whole
// group can be signalled at once.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// interrupt sends SIGTERM to the child's process group. Descendants such
// as ffmpeg share the group and inherit the output pipes.
func interrupt(p *os.Process) error {
	if err := signalGroup(p, syscall.SIGTERM); err != nil {
		return ignoreFinished(p.Signal(syscall.SIGTERM))
	}
	return nil
}

// forceKill kills the process tree while the leader can still be walked,
// then SIGKILLs the group to reach descendants already reparented away
// from it.
func forceKill(p *os.Process) error {
	treeErr := killTree(p)
	if err := signalGroup(p, syscall.SIGKILL); err != nil {
		return errors.Join(treeErr, err)
	}
	return nil
}

// signalGroup signals the group led by p. A group with no members left is
// not an error.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
