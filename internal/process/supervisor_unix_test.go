//go:build !windows

package process

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"syscall"
	"testing"
	"time"

	psutil "github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_TerminateGraceful(t *testing.T) {
	sup := NewSupervisor(5*time.Second, nil)
	rec := newRecorder()

	h, err := sup.Start(context.Background(), helperCommand("sleep"), rec.callbacks())
	require.NoError(t, err)
	rec.waitReady(t)

	start := time.Now()
	assert.True(t, sup.Terminate(h))
	assert.False(t, sup.Terminate(h), "second terminate is a no-op")

	exit := rec.waitExit(t)
	assert.Equal(t, Cancelled, exit.Outcome())
	assert.True(t, exit.Cancelled)
	assert.Equal(t, "terminated", exit.Signal)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSupervisor_TerminateEscalates(t *testing.T) {
	sup := NewSupervisor(200*time.Millisecond, nil)
	rec := newRecorder()

	h, err := sup.Start(context.Background(), helperCommand("stubborn"), rec.callbacks())
	require.NoError(t, err)
	rec.waitReady(t)

	require.True(t, sup.Terminate(h))
	assert.Equal(t, StateCancelling, h.State())

	exit := rec.waitExit(t)
	assert.Equal(t, Cancelled, exit.Outcome())
	assert.Equal(t, "killed", exit.Signal)
	assert.Equal(t, StateExited, h.State())
}

// shellWithChild starts a shell that runs sleep in the background with the
// shell's stdout, prints the child's pid and waits for it.
func shellWithChild(t *testing.T, sup *Supervisor, rec *recorder, prelude string) (*Handle, int) {
	t.Helper()
	script := prelude + "sleep 30 & echo $!; wait"
	h, err := sup.Start(context.Background(), Command{Path: "/bin/sh", Args: []string{"-c", script}}, rec.callbacks())
	require.NoError(t, err)

	var pid int
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.lines[Stdout]) == 0 {
			return false
		}
		n, perr := strconv.Atoi(rec.lines[Stdout][0])
		if perr != nil {
			return false
		}
		pid = n
		return true
	}, 5*time.Second, 10*time.Millisecond)
	return h, pid
}

func processGone(pid int) bool {
	if errors.Is(syscall.Kill(pid, 0), syscall.ESRCH) {
		return true
	}
	// reparented children may linger as zombies until init reaps them
	p, err := psutil.NewProcess(int32(pid))
	if err != nil {
		return true
	}
	status, err := p.Status()
	return err == nil && slices.Contains(status, psutil.Zombie)
}

func waitExited(t *testing.T, h *Handle, within time.Duration) {
	t.Helper()
	select {
	case <-h.Exited():
	case <-time.After(within):
		t.Fatalf("handle did not exit within %s", within)
	}
}

func TestSupervisor_TerminateReachesDescendants(t *testing.T) {
	sup := NewSupervisor(5*time.Second, nil)
	rec := newRecorder()

	h, child := shellWithChild(t, sup, rec, "")
	t.Cleanup(func() { _ = syscall.Kill(child, syscall.SIGKILL) })

	require.True(t, sup.Terminate(h))
	waitExited(t, h, 3*time.Second)

	exit := rec.waitExit(t)
	assert.Equal(t, Cancelled, exit.Outcome())
	assert.Eventually(t, func() bool { return processGone(child) }, 2*time.Second, 20*time.Millisecond)
}

func TestSupervisor_TerminateKillsStubbornDescendants(t *testing.T) {
	sup := NewSupervisor(300*time.Millisecond, nil)
	rec := newRecorder()

	// the trap is inherited by sleep, so SIGTERM reaches nobody
	h, child := shellWithChild(t, sup, rec, `trap "" TERM; `)
	t.Cleanup(func() { _ = syscall.Kill(child, syscall.SIGKILL) })

	require.True(t, sup.Terminate(h))
	waitExited(t, h, 4*time.Second)

	exit := rec.waitExit(t)
	assert.Equal(t, Cancelled, exit.Outcome())
	assert.Equal(t, "killed", exit.Signal)
	assert.Eventually(t, func() bool { return processGone(child) }, 2*time.Second, 20*time.Millisecond)
}
