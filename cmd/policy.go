package cmd

import (
	"fmt"

	"github.com/insajin/port-browser/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// policyCmd는 적용 중인 보안 정책을 출력하는 명령어입니다.
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "내장 창의 보안 정책을 출력합니다",
	Long: `설정 파일과 환경변수를 반영한 보안 정책을 YAML 포맷으로 출력합니다.

strict_mode가 false이면 allowed_ports와 관계없이 로컬 주소의 모든 포트가 허용됩니다.
--embedded로 실행한 포트는 실행 시 자동으로 허용 목록에 추가됩니다.`,
	RunE: runPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

func runPolicy(cmd *cobra.Command, args []string) error {
	// 정책으로 변환한 뒤 다시 설정 형태로 바꾸어 정렬된 포트 목록을 출력합니다
	p := appCfg.Security.Policy()
	effective := config.SecurityConfig{
		AllowLocalhost: p.AllowLocalhost,
		AllowLoopback:  p.AllowLoopback,
		AllowedPorts:   p.AllowedPorts.Sorted(),
		StrictMode:     p.StrictMode,
	}

	data, err := yaml.Marshal(effective)
	if err != nil {
		return fmt.Errorf("YAML 직렬화 실패: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
