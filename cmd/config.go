// Package cmd는 Port Browser CLI의 명령어를 정의합니다.
// config.go는 설정 관리 명령을 구현합니다.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/insajin/port-browser/internal/config"
	"github.com/insajin/port-browser/internal/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd는 설정 관리를 위한 상위 명령어입니다.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정을 관리합니다",
	Long: `설정 파일의 값을 조회하거나 수정합니다.

설정 파일 위치: <사용자 설정 디렉토리>/port-browser/config.json
(config path 명령으로 확인할 수 있습니다)

환경변수가 설정 파일보다 우선합니다. 예: PORT_BROWSER_SECURITY_STRICT_MODE=false`,
}

// configSetCmd는 설정 값을 저장하는 명령어입니다.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "설정 값을 저장합니다",
	Long: `설정 파일에 값을 저장합니다. 잘못된 값은 저장되지 않습니다.

키는 점(.)으로 구분된 경로를 사용합니다. 목록 값은 쉼표로 구분합니다.
예시:
  port-browser config set default_port 5173
  port-browser config set theme Dark
  port-browser config set security.allowed_ports 3000,5173,8080
  port-browser config set security.strict_mode false

지원하는 설정 키:
` + keyHelp(),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configGetCmd는 설정 값을 조회하는 명령어입니다.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "설정 값을 조회합니다",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

// configListCmd는 전체 설정을 출력하는 명령어입니다.
var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "전체 설정을 출력합니다",
	Long:  `현재 적용된 모든 설정을 YAML 포맷으로 출력합니다.`,
	RunE:  runConfigList,
}

// configPathCmd는 설정 파일 경로를 출력하는 명령어입니다.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "설정 파일 경로를 출력합니다",
	RunE: func(cmd *cobra.Command, args []string) error {
		if store.Path() == "" {
			return config.ErrNoConfigDir
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path())
		return nil
	},
}

// configInitCmd는 기본 설정 파일을 생성하는 명령어입니다.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "기본 설정 파일을 생성합니다",
	Long: `기본 설정으로 설정 파일을 생성합니다.

이미 파일이 존재하면 덮어쓰지 않습니다.
강제로 덮어쓰려면 --force 플래그를 사용하세요.`,
	RunE: runConfigInit,
}

var forceInit bool

func init() {
	rootCmd.AddCommand(configCmd)

	// 하위 명령 등록
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	// init 명령 플래그
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "기존 파일을 덮어씁니다")
}

// runConfigSet은 설정 값을 저장합니다.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if _, err := store.Set(key, parseConfigValue(value)); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return fmt.Errorf("%w\n지원하는 키:\n%s", err, keyHelp())
		}
		return fmt.Errorf("설정 저장 실패: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	fmt.Fprintf(cmd.OutOrStdout(), "설정이 저장되었습니다: %s\n", store.Path())
	return nil
}

// runConfigGet은 설정 값을 조회합니다.
func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := store.Get(args[0])
	if err != nil {
		return err
	}

	// 로그 파일 경로 등에 섞인 자격 증명이 있으면 가립니다
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], logger.MaskSensitive(fmt.Sprint(value)))
	return nil
}

// runConfigList는 전체 설정을 출력합니다.
func runConfigList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(store.Path()); err == nil {
		fmt.Fprintf(out, "# 설정 파일: %s\n", store.Path())
	} else {
		fmt.Fprintf(out, "# 설정 파일: (기본값 사용 중)\n")
	}
	fmt.Fprintln(out)

	// YAML로 직렬화
	yamlData, err := yaml.Marshal(appCfg)
	if err != nil {
		return fmt.Errorf("YAML 직렬화 실패: %w", err)
	}
	fmt.Fprint(out, string(yamlData))
	return nil
}

// runConfigInit은 기본 설정 파일을 생성합니다.
func runConfigInit(cmd *cobra.Command, args []string) error {
	path := store.Path()

	// 기존 파일 확인
	if !forceInit {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("설정 파일이 이미 존재합니다: %s\n--force 플래그로 덮어쓸 수 있습니다", path)
		}
	}

	if err := store.Save(config.Default()); err != nil {
		return fmt.Errorf("설정 파일 생성 실패: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "설정 파일이 생성되었습니다: %s\n", path)
	return nil
}

// keyHelp는 지원하는 설정 키 목록을 한 줄씩 반환합니다.
func keyHelp() string {
	var b strings.Builder
	for _, k := range config.Keys() {
		b.WriteString("  " + k + "\n")
	}
	return b.String()
}

// parseConfigValue는 문자열 값을 적절한 타입으로 변환합니다.
// 숫자와 목록은 viper가 대상 필드 타입으로 변환합니다.
func parseConfigValue(value string) interface{} {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
