package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// commandOpener starts an external program with the URL as its last
// argument and does not wait for it to exit.
type commandOpener struct {
	name string
	args []string
}

// SystemOpener opens URLs with the platform's default handler
// (xdg-open, open or rundll32).
func SystemOpener() Opener {
	name, args := systemOpenCommand()
	return &commandOpener{name: name, args: args}
}

// BrowserOpener opens URLs with a specific browser.
// On macOS name is an application name passed to "open -a"; elsewhere it is
// an executable looked up on PATH.
func BrowserOpener(name string) Opener {
	cmd, args := browserOpenCommand(strings.TrimSpace(name))
	return &commandOpener{name: cmd, args: args}
}

// Open starts the command and returns once it has been spawned.
// The child is reaped in the background.
func (o *commandOpener) Open(ctx context.Context, url string) error {
	if o.name == "" {
		return fmt.Errorf("no browser command configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	args := append(append([]string{}, o.args...), url)
	cmd := exec.Command(o.name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", o.name, err)
	}

	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// String describes the command, e.g. "xdg-open".
func (o *commandOpener) String() string {
	return strings.Join(append([]string{o.name}, o.args...), " ")
}

// DefaultBrowser reports the name of the user's default browser when the
// platform exposes it.
func DefaultBrowser() (string, bool) {
	name := strings.TrimSpace(defaultBrowser())
	if name == "" {
		return "", false
	}
	return name, true
}
