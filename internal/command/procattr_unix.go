//go:build unix

package command

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func shellPath(shell string) string {
	if shell == "" {
		return "/bin/sh"
	}
	return shell
}

func shellArgs(command string) []string {
	return []string{"-c", command}
}

// configureProcessGroup starts the shell in its own process group and makes
// cancellation kill the group, so children of the shell die with it.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
			return cmd.Process.Kill()
		}
		return nil
	}
}
