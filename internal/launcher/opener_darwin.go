//go:build darwin

package launcher

import (
	"os/exec"
	"regexp"
)

// LSHandlerRoleAll = "com.google.chrome"; preceded by LSHandlerURLScheme = https
var httpsHandler = regexp.MustCompile(`(?s)LSHandlerRoleAll = "([^"]+)";\s*LSHandlerURLScheme = https;`)

func systemOpenCommand() (string, []string) {
	return "open", nil
}

func browserOpenCommand(name string) (string, []string) {
	return "open", []string{"-a", name}
}

// defaultBrowser reads the https handler bundle ID from LaunchServices.
func defaultBrowser() string {
	out, err := exec.Command("defaults", "read",
		"com.apple.LaunchServices/com.apple.launchservices.secure", "LSHandlers").Output()
	if err != nil {
		return ""
	}
	m := httpsHandler.FindSubmatch(out)
	if m == nil {
		return ""
	}
	return string(m[1])
}
