package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

// ClipboardWriter provides cross-platform clipboard access with graceful degradation.
// It prefers the native clipboard and falls back to platform tools when the
// native one cannot be initialized (for example on a headless Linux box
// without X11 but with wl-copy).
type ClipboardWriter struct {
	native    bool
	tool      []string
	available bool
	errMsg    string
}

var (
	nativeOnce sync.Once
	nativeErr  error
)

// NewClipboardWriter creates a new ClipboardWriter and checks availability.
func NewClipboardWriter() *ClipboardWriter {
	cw := &ClipboardWriter{}
	cw.checkAvailability()
	return cw
}

// checkAvailability determines if clipboard is accessible.
func (cw *ClipboardWriter) checkAvailability() {
	nativeOnce.Do(func() {
		nativeErr = clipboard.Init()
	})
	if nativeErr == nil {
		cw.native = true
		cw.available = true
		return
	}

	switch runtime.GOOS {
	case "darwin":
		cw.tool = lookTool([]string{"pbcopy"})
	case "linux":
		cw.tool = lookTool(
			[]string{"xclip", "-selection", "clipboard"},
			[]string{"xsel", "--clipboard", "--input"},
			[]string{"wl-copy"},
		)
	case "windows":
		cw.tool = lookTool([]string{"clip"})
	}

	if cw.tool == nil {
		cw.errMsg = fmt.Sprintf("clipboard unavailable on %s: %v", runtime.GOOS, nativeErr)
		return
	}
	cw.available = true
}

func lookTool(candidates ...[]string) []string {
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

// IsAvailable returns whether clipboard operations are supported.
func (cw *ClipboardWriter) IsAvailable() bool {
	return cw.available
}

// Error returns the reason clipboard is unavailable.
func (cw *ClipboardWriter) Error() string {
	return cw.errMsg
}

// Write copies text to the system clipboard.
func (cw *ClipboardWriter) Write(text string) error {
	if !cw.available {
		return fmt.Errorf("clipboard unavailable: %s", cw.errMsg)
	}

	if cw.native {
		clipboard.Write(clipboard.FmtText, []byte(text))
		return nil
	}

	cmd := exec.Command(cw.tool[0], cw.tool[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
