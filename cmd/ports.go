package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/insajin/port-browser/internal/validator"
	"github.com/spf13/cobra"
)

// portProbeTimeout은 ports list에서 포트 하나를 확인하는 시간입니다.
const portProbeTimeout = 150 * time.Millisecond

// portsCmd는 빠른 포트 목록을 관리하는 상위 명령어입니다.
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "빠른 포트 목록을 관리합니다",
}

// portsListCmd는 빠른 포트 목록과 각 포트의 상태를 출력합니다.
var portsListCmd = &cobra.Command{
	Use:   "list",
	Short: "빠른 포트 목록을 출력합니다",
	RunE:  runPortsList,
}

// portsAddCmd는 포트를 최근 포트 목록에 추가합니다.
var portsAddCmd = &cobra.Command{
	Use:   "add <port>",
	Short: "포트를 최근 포트 목록에 추가합니다",
	Args:  cobra.ExactArgs(1),
	RunE:  runPortsAdd,
}

// portsSuggestCmd는 사용 가능한 포트를 추천합니다.
var portsSuggestCmd = &cobra.Command{
	Use:   "suggest [start]",
	Short: "start부터 사용 가능한 포트를 찾습니다",
	Long: `start부터 100개 범위에서 바인딩 가능한 첫 포트를 출력합니다.
start를 생략하면 설정의 default_port를 사용합니다.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPortsSuggest,
}

func init() {
	rootCmd.AddCommand(portsCmd)

	portsCmd.AddCommand(portsListCmd)
	portsCmd.AddCommand(portsAddCmd)
	portsCmd.AddCommand(portsSuggestCmd)
}

func runPortsList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	for _, p := range appCfg.QuickPorts() {
		state := "-"
		if validator.IsListening(ctx, validator.Port(p), portProbeTimeout) {
			state = "실행 중"
		}
		mark := " "
		if slices.Contains(appCfg.RecentPorts, p) {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-6d %s\n", mark, p, state)
	}
	fmt.Fprintln(out, "\n* 최근 사용한 포트")
	return nil
}

func runPortsAdd(cmd *cobra.Command, args []string) error {
	port, err := validator.ValidatePort(args[0])
	if err != nil {
		return err
	}

	appCfg.AddQuickPort(uint16(port))
	if err := store.Save(appCfg); err != nil {
		return fmt.Errorf("설정 저장 실패: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "포트 %d을(를) 추가했습니다: %v\n", port, appCfg.RecentPorts)
	return nil
}

func runPortsSuggest(cmd *cobra.Command, args []string) error {
	start := validator.Port(appCfg.DefaultPort)
	if len(args) > 0 {
		p, err := validator.ValidatePort(args[0])
		if err != nil {
			return err
		}
		start = p
	}

	suggested := validator.SuggestPort(start)
	if !validator.IsPortAvailable(suggested) {
		return fmt.Errorf("%d부터 사용 가능한 포트를 찾지 못했습니다", start)
	}
	fmt.Fprintln(cmd.OutOrStdout(), suggested)
	return nil
}
