//go:build windows

package audio

import "os"

func suspendProcess(_ *os.Process) error {
	return errNoSuspend
}

func resumeProcess(_ *os.Process) error {
	return nil
}
