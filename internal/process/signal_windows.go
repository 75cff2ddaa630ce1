//go:build windows

package process

import (
	"os"
	"os/exec"
)

func configureCommand(_ *exec.Cmd) {}

// interrupt has no graceful form on Windows; the whole tree is killed.
func interrupt(p *os.Process) error {
	return killTree(p)
}

func forceKill(p *os.Process) error {
	return killTree(p)
}
