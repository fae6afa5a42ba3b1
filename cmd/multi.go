package cmd

import (
	"fmt"

	"github.com/insajin/port-browser/internal/launcher"
	"github.com/insajin/port-browser/internal/validator"
	"github.com/spf13/cobra"
)

// multiCmd는 여러 포트를 한 번에 여는 명령어입니다.
var multiCmd = &cobra.Command{
	Use:   "multi <port>...",
	Short: "여러 포트를 한 번에 엽니다",
	Long: `각 포트를 차례로 엽니다. 한 포트가 실패해도 나머지는 계속 엽니다.

예시:
  port-browser multi 3000 5173 8080`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMulti,
}

func init() {
	rootCmd.AddCommand(multiCmd)
}

// runMulti는 포트별 결과를 출력하고, 하나라도 실패하면 오류를 반환합니다.
func runMulti(cmd *cobra.Command, args []string) error {
	l := launcher.New(
		launcher.WithOpener(selectOpener()),
		launcher.WithLogger(log),
	)

	failed := 0
	ports := make([]uint16, 0, len(args))
	for _, arg := range args {
		port, err := validator.ValidatePort(arg)
		if err != nil {
			fmt.Printf("✗ %-6s %v\n", arg, err)
			failed++
			continue
		}
		ports = append(ports, uint16(port))
	}

	for _, r := range l.LaunchMultiple(cmd.Context(), ports) {
		if r.OK() {
			fmt.Printf("✓ %-6d %s\n", r.Port, r.URL)
			continue
		}
		fmt.Printf("✗ %-6d %v\n", r.Port, r.Err)
		failed++
	}

	if failed > 0 {
		return fmt.Errorf("%d/%d개 포트를 열지 못했습니다", failed, len(args))
	}
	return nil
}
