//go:build !darwin && !windows

package launcher

import (
	"os/exec"
	"strings"
)

func systemOpenCommand() (string, []string) {
	return "xdg-open", nil
}

func browserOpenCommand(name string) (string, []string) {
	return name, nil
}

// defaultBrowser asks xdg-settings for the desktop entry, e.g.
// "firefox.desktop", and strips the suffix.
func defaultBrowser() string {
	out, err := exec.Command("xdg-settings", "get", "default-web-browser").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(string(out)), ".desktop")
}
