// Package main은 Port Browser CLI의 진입점입니다.
// 입력한 포트의 로컬 개발 서버를 기본 브라우저나 내장 브라우저 창으로 엽니다.
package main

import (
	"os"

	"github.com/insajin/port-browser/cmd"
)

// 빌드 시 ldflags로 주입되는 버전 정보
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
