//go:build windows

package launcher

import (
	"os/exec"
	"strings"
)

func systemOpenCommand() (string, []string) {
	return "rundll32", []string{"url.dll,FileProtocolHandler"}
}

func browserOpenCommand(name string) (string, []string) {
	return "cmd", []string{"/c", "start", "", name}
}

// defaultBrowser reads the ProgId registered for https, e.g. "ChromeHTML".
func defaultBrowser() string {
	out, err := exec.Command("reg", "query",
		`HKEY_CURRENT_USER\Software\Microsoft\Windows\Shell\Associations\UrlAssociations\https\UserChoice`,
		"/v", "ProgId").Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 3 && fields[0] == "ProgId" {
			return fields[2]
		}
	}
	return ""
}
