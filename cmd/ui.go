// ui.go는 대화형 터미널 UI 명령을 구현합니다.
package cmd

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/insajin/port-browser/internal/app"
	"github.com/insajin/port-browser/internal/launcher"
	"github.com/insajin/port-browser/internal/tui"
	"github.com/spf13/cobra"
)

// uiCmd는 포트 선택 TUI를 엽니다.
var uiCmd = &cobra.Command{
	Use:   "ui [port]",
	Short: "대화형 포트 선택 화면을 엽니다",
	Long: `포트를 입력하거나 빠른 포트 목록에서 골라 브라우저를 엽니다.

키보드 단축키:
  enter      선택한 포트 열기
  up/down    빠른 포트 목록 이동
  tab        입력창/목록 전환
  d          기본 포트 사용 전환
  a          실행 후 자동 종료 전환
  ctrl+s     설정 저장
  esc, q     종료`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

// runUI는 세션을 만들고 Bubble Tea 프로그램을 실행합니다.
func runUI(cmd *cobra.Command, args []string) error {
	initial := strconv.Itoa(int(appCfg.DefaultPort))
	if len(args) > 0 {
		initial = args[0]
	}

	session := app.NewSession(appCfg,
		app.WithStore(store),
		app.WithLogger(log),
		app.WithLauncher(launcher.New(launcher.WithOpener(selectOpener()), launcher.WithLogger(log))),
	)
	model := tui.NewModel(tui.NewBackend(app.NewDispatcher(session)), initial)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}
	return nil
}
