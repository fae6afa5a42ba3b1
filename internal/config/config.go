// Package config는 Port Browser의 사용자 설정을 관리합니다.
// 설정 우선순위: 환경변수(PORT_BROWSER_*) > 설정파일 > 기본값
package config

import (
	"fmt"
	"slices"

	"github.com/insajin/port-browser/internal/security"
)

// Theme은 UI 테마 설정입니다.
type Theme string

const (
	ThemeLight  Theme = "Light"
	ThemeDark   Theme = "Dark"
	ThemeSystem Theme = "System"
)

// 최근 포트와 빠른 포트 목록 제한
const (
	maxRecentPorts = 10
	maxQuickPorts  = 15
)

// commonPorts는 빠른 포트 목록을 채우는 데 쓰이는 일반적인 개발 서버 포트입니다.
var commonPorts = []uint16{3000, 8080, 5173, 3001, 4200, 8000, 9000, 5500}

// AppConfig는 사용자 설정 파일(config.json)의 내용을 나타냅니다.
type AppConfig struct {
	// DefaultPort는 기본 포트 번호입니다.
	DefaultPort uint16 `mapstructure:"default_port" yaml:"default_port"`
	// UseDefaultPort는 입력 대신 기본 포트를 사용할지 여부입니다.
	UseDefaultPort bool `mapstructure:"use_default_port" yaml:"use_default_port"`
	// AutoLaunch는 시작 시 바로 브라우저를 열지 여부입니다.
	AutoLaunch bool `mapstructure:"auto_launch" yaml:"auto_launch"`
	// AutoClose는 브라우저를 연 뒤 창을 자동으로 닫을지 여부입니다.
	AutoClose bool `mapstructure:"auto_close" yaml:"auto_close"`
	// WindowWidth와 WindowHeight는 창 크기입니다.
	WindowWidth  uint32 `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight uint32 `mapstructure:"window_height" yaml:"window_height"`
	// RecentPorts는 최근 사용한 포트 목록입니다.
	RecentPorts []uint16 `mapstructure:"recent_ports" yaml:"recent_ports"`
	// Theme은 테마 설정입니다 (Light, Dark, System).
	Theme Theme `mapstructure:"theme" yaml:"theme"`

	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// SecurityConfig는 내장 브라우저의 탐색 허용 정책 설정입니다.
type SecurityConfig struct {
	AllowLocalhost bool     `mapstructure:"allow_localhost" yaml:"allow_localhost"`
	AllowLoopback  bool     `mapstructure:"allow_loopback" yaml:"allow_loopback"`
	AllowedPorts   []uint16 `mapstructure:"allowed_ports" yaml:"allowed_ports"`
	StrictMode     bool     `mapstructure:"strict_mode" yaml:"strict_mode"`
}

// LoggingConfig는 로깅 설정입니다.
type LoggingConfig struct {
	// Level은 로그 레벨입니다 (debug, info, warn, error, off).
	Level string `mapstructure:"level" yaml:"level"`
	// Format은 로그 포맷입니다 (json, text).
	Format string `mapstructure:"format" yaml:"format"`
	// File은 로그 파일 경로입니다. 비어있으면 stderr로 출력합니다.
	File string `mapstructure:"file" yaml:"file"`
}

// Default는 설정 파일이 없거나 손상되었을 때 사용하는 기본 설정을 반환합니다.
func Default() *AppConfig {
	return &AppConfig{
		DefaultPort:    8080,
		UseDefaultPort: true,
		AutoLaunch:     false,
		AutoClose:      false,
		WindowWidth:    400,
		WindowHeight:   500,
		RecentPorts:    []uint16{3000, 8080, 5173, 3001, 4200},
		Theme:          ThemeSystem,
		Security:       DefaultSecurityConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultSecurityConfig는 security.DefaultPolicy와 같은 내용의 설정을 반환합니다.
func DefaultSecurityConfig() SecurityConfig {
	p := security.DefaultPolicy()
	return SecurityConfig{
		AllowLocalhost: p.AllowLocalhost,
		AllowLoopback:  p.AllowLoopback,
		AllowedPorts:   p.AllowedPorts.Sorted(),
		StrictMode:     p.StrictMode,
	}
}

// Policy는 설정으로부터 보안 정책을 생성합니다.
func (s SecurityConfig) Policy() security.Policy {
	return security.Policy{
		AllowLocalhost: s.AllowLocalhost,
		AllowLoopback:  s.AllowLoopback,
		AllowedPorts:   security.NewPortSet(s.AllowedPorts...),
		StrictMode:     s.StrictMode,
	}
}

// AddQuickPort는 포트를 최근 포트 목록 끝에 추가합니다.
// 이미 있는 포트는 무시하며, 10개를 넘으면 가장 오래된 포트를 제거합니다.
func (c *AppConfig) AddQuickPort(port uint16) {
	if slices.Contains(c.RecentPorts, port) {
		return
	}
	c.RecentPorts = append(c.RecentPorts, port)
	if len(c.RecentPorts) > maxRecentPorts {
		c.RecentPorts = c.RecentPorts[len(c.RecentPorts)-maxRecentPorts:]
	}
}

// QuickPorts는 최근 포트 뒤에 일반적인 개발 포트를 채운 목록을 반환합니다 (최대 15개).
func (c *AppConfig) QuickPorts() []uint16 {
	ports := slices.Clone(c.RecentPorts)
	for _, p := range commonPorts {
		if len(ports) >= maxQuickPorts {
			break
		}
		if !slices.Contains(ports, p) {
			ports = append(ports, p)
		}
	}
	if len(ports) > maxQuickPorts {
		ports = ports[:maxQuickPorts]
	}
	return ports
}

// Validate는 설정의 유효성을 검사합니다.
func (c *AppConfig) Validate() error {
	if c.DefaultPort == 0 {
		return fmt.Errorf("default_port는 1-65535 사이여야 합니다")
	}
	if slices.Contains(c.RecentPorts, 0) {
		return fmt.Errorf("recent_ports에 0이 포함될 수 없습니다")
	}
	if c.WindowWidth == 0 || c.WindowHeight == 0 {
		return fmt.Errorf("창 크기는 0보다 커야 합니다 (%dx%d)", c.WindowWidth, c.WindowHeight)
	}

	validThemes := map[Theme]bool{
		ThemeLight:  true,
		ThemeDark:   true,
		ThemeSystem: true,
	}
	if !validThemes[c.Theme] {
		return fmt.Errorf("유효하지 않은 테마: %s (Light, Dark, System 중 하나)", c.Theme)
	}

	if slices.Contains(c.Security.AllowedPorts, 0) {
		return fmt.Errorf("security.allowed_ports에 0이 포함될 수 없습니다")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("유효하지 않은 로그 레벨: %s (debug, info, warn, error, off 중 하나)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("유효하지 않은 로그 포맷: %s (json, text 중 하나)", c.Logging.Format)
	}

	return nil
}
