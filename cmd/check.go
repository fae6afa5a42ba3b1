package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/insajin/port-browser/internal/security"
	"github.com/spf13/cobra"
)

var (
	explainCheck bool
	checkPorts   []uint
)

// checkCmd는 URL 목록을 보안 정책으로 필터링하는 명령어입니다.
var checkCmd = &cobra.Command{
	Use:   "check [url...]",
	Short: "URL이 보안 정책을 통과하는지 확인합니다",
	Long: `내장 창과 같은 보안 정책으로 URL을 평가합니다.
허용된 URL만 입력 순서대로 출력합니다. 인자가 없으면 표준 입력에서 한 줄에 하나씩 읽습니다.

예시:
  port-browser check http://localhost:3000 https://example.com
  cat urls.txt | port-browser check --explain`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&explainCheck, "explain", false, "모든 URL의 판정과 이유를 출력합니다")
	checkCmd.Flags().UintSliceVar(&checkPorts, "port", nil, "추가로 허용할 포트")
}

func runCheck(cmd *cobra.Command, args []string) error {
	urls := args
	if len(urls) == 0 {
		if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
			fmt.Fprintln(cmd.ErrOrStderr(), "URL을 한 줄에 하나씩 입력하세요 (Ctrl+D로 종료)")
		}
		var err error
		urls, err = readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("표준 입력 읽기 실패: %w", err)
		}
	}

	policy := appCfg.Security.Policy()
	for _, p := range checkPorts {
		if p == 0 || p > 65535 {
			return fmt.Errorf("잘못된 포트: %d", p)
		}
		policy = policy.WithPorts(uint16(p))
	}
	filter := security.NewFilter(policy)

	out := cmd.OutOrStdout()
	if !explainCheck {
		for _, u := range filter.FilterURLs(urls) {
			fmt.Fprintln(out, u)
		}
		return nil
	}

	for _, u := range urls {
		d := filter.Evaluate(u)
		verdict := "DENY "
		if d.Allowed {
			verdict = "ALLOW"
		}
		fmt.Fprintf(out, "%s %-18s %s\n", verdict, d.Reason, u)
	}
	return nil
}

// readLines는 빈 줄을 제외한 줄 목록을 반환합니다.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// stdinIsTerminal은 입력이 파이프가 아닌 터미널인지 확인합니다.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
