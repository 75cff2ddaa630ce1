package process

import (
	"errors"
	"os"

	psutil "github.com/shirou/gopsutil/v3/process"
)

// killTree kills p and every descendant, children first. yt-dlp runs
// ffmpeg as a child that would otherwise keep the output pipes open.
func killTree(p *os.Process) error {
	proc, err := psutil.NewProcess(int32(p.Pid))
	if err != nil {
		// already gone, or unreadable on this platform
		return ignoreFinished(p.Kill())
	}
	return killProc(proc, p)
}

func killProc(proc *psutil.Process, root *os.Process) error {
	children, _ := proc.Children()
	var errs []error
	for _, child := range children {
		if err := killProc(child, nil); err != nil {
			errs = append(errs, err)
		}
	}

	if root != nil {
		errs = append(errs, ignoreFinished(root.Kill()))
	} else if err := proc.Kill(); err != nil {
		if ok, _ := proc.IsRunning(); ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func ignoreFinished(err error) error {
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
