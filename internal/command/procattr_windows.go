//go:build windows

package command

import "os/exec"

func shellPath(shell string) string {
	if shell == "" || shell == "sh" {
		return "cmd"
	}
	return shell
}

func shellArgs(command string) []string {
	return []string{"/C", command}
}

// configureProcessGroup keeps the default cancellation, which kills the
// shell process only.
func configureProcessGroup(*exec.Cmd) {}
