package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	appDirName = "port-browser"
	fileName   = "config.json"
	envPrefix  = "PORT_BROWSER"
)

// ErrorKind는 설정 오류의 종류입니다.
type ErrorKind int

const (
	// KindIO는 파일 읽기/쓰기 실패입니다.
	KindIO ErrorKind = iota
	// KindParse는 JSON 파싱 또는 값 검증 실패입니다.
	KindParse
	// KindPath는 설정 파일 경로를 결정할 수 없는 경우입니다.
	KindPath
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// ErrNoConfigDir는 사용자 설정 디렉토리를 찾을 수 없을 때 반환됩니다.
var ErrNoConfigDir = errors.New("사용자 설정 디렉토리를 찾을 수 없습니다")

// ErrUnknownKey는 지원하지 않는 설정 키를 지정했을 때 반환됩니다.
var ErrUnknownKey = errors.New("알 수 없는 설정 키")

// ConfigError는 설정 파일 처리 중 발생한 오류입니다.
type ConfigError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("설정 %s 오류: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("설정 %s 오류 (%s): %v", e.Kind, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// keys는 config get/set에서 지원하는 설정 키 목록입니다.
var keys = []string{
	"default_port",
	"use_default_port",
	"auto_launch",
	"auto_close",
	"window_width",
	"window_height",
	"recent_ports",
	"theme",
	"security.allow_localhost",
	"security.allow_loopback",
	"security.allowed_ports",
	"security.strict_mode",
	"logging.level",
	"logging.format",
	"logging.file",
}

// Keys는 지원하는 설정 키 목록을 반환합니다.
func Keys() []string {
	return slices.Clone(keys)
}

// IsValidKey는 지원하는 설정 키인지 확인합니다.
func IsValidKey(key string) bool {
	return slices.Contains(keys, key)
}

// DefaultConfigPath는 플랫폼 표준 사용자 설정 디렉토리 아래의 설정 파일 경로를 반환합니다.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", &ConfigError{Kind: KindPath, Err: fmt.Errorf("%w: %v", ErrNoConfigDir, err)}
	}
	return filepath.Join(dir, appDirName, fileName), nil
}

// Store는 설정 파일 하나를 소유하는 viper 인스턴스를 감쌉니다.
// 전역 viper 상태를 사용하지 않으므로 여러 Store가 서로 간섭하지 않습니다.
type Store struct {
	v       *viper.Viper
	path    string
	pathErr error
	logger  zerolog.Logger
}

// StoreOption은 Store 설정 옵션입니다.
type StoreOption func(*Store)

// WithPath는 설정 파일 경로를 지정합니다. 비어 있으면 기본 경로를 사용합니다.
func WithPath(path string) StoreOption {
	return func(s *Store) {
		s.path = path
	}
}

// WithLogger는 로거를 설정합니다.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore는 새로운 설정 저장소를 생성합니다.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	if s.path == "" {
		s.path, s.pathErr = DefaultConfigPath()
	} else {
		s.path = expandPath(s.path)
	}

	s.v = viper.New()
	s.v.SetConfigType("json")
	s.v.SetEnvPrefix(envPrefix)
	s.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	s.v.AutomaticEnv()
	setDefaults(s.v, Default())

	return s
}

// Path는 설정 파일 경로를 반환합니다.
func (s *Store) Path() string {
	return s.path
}

// Load는 설정 파일을 읽습니다. 파일이 없거나 읽을 수 없거나 손상된 경우
// 경고를 기록하고 기본 설정을 반환하며, 시작을 실패시키지 않습니다.
func (s *Store) Load() *AppConfig {
	if s.pathErr != nil {
		s.logger.Warn().Err(s.pathErr).Msg("설정 파일 경로를 결정할 수 없어 기본 설정을 사용합니다")
		return Default()
	}

	cfg, err := s.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info().Str("path", s.path).Msg("설정 파일이 없어 기본 설정을 사용합니다")
		} else {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("설정 파일이 손상되어 기본 설정을 사용합니다")
		}
		return Default()
	}

	s.logger.Info().Str("path", s.path).Msg("설정을 불러왔습니다")
	return cfg
}

func (s *Store) read() (*AppConfig, error) {
	s.v.SetConfigFile(s.path)
	if err := s.v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return nil, &ConfigError{Kind: KindParse, Path: s.path, Err: err}
		}
		return nil, &ConfigError{Kind: KindIO, Path: s.path, Err: err}
	}
	return s.decode()
}

func (s *Store) decode() (*AppConfig, error) {
	var cfg AppConfig
	if err := s.v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, &ConfigError{Kind: KindParse, Path: s.path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Kind: KindParse, Path: s.path, Err: err}
	}
	return &cfg, nil
}

// Save는 설정을 JSON으로 저장합니다. 설정 디렉토리가 없으면 0700 권한으로 생성합니다.
func (s *Store) Save(cfg *AppConfig) error {
	if s.pathErr != nil {
		return s.pathErr
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Kind: KindParse, Path: s.path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return &ConfigError{Kind: KindIO, Path: s.path, Err: err}
	}

	apply(s.v, cfg)
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return &ConfigError{Kind: KindIO, Path: s.path, Err: err}
	}

	s.logger.Info().Str("path", s.path).Msg("설정이 저장되었습니다")
	return nil
}

// Get은 마지막으로 불러온 설정에서 키의 값을 반환합니다.
func (s *Store) Get(key string) (interface{}, error) {
	if !IsValidKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.v.Get(key), nil
}

// Set은 키 하나의 값을 바꾸고 검증한 뒤 파일에 저장합니다.
// 검증에 실패하면 값을 되돌리고 오류를 반환합니다.
func (s *Store) Set(key string, value interface{}) (*AppConfig, error) {
	if !IsValidKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	s.Load()
	prev := s.v.Get(key)
	s.v.Set(key, value)

	cfg, err := s.decode()
	if err != nil {
		s.v.Set(key, prev)
		return nil, err
	}
	if err := s.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeHook은 viper 기본 훅에 포트 범위 검사를 더합니다.
// WeaklyTypedInput은 70000 같은 값을 uint16으로 잘라 넣으므로 디코딩 전에 거부해야 합니다.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
	portRangeHook,
)

// portRangeHook은 uint16 필드로 들어가는 값이 0-65535 범위를 벗어나면 오류를 반환합니다.
func portRangeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Uint16 {
		return data, nil
	}

	var n float64
	v := reflect.ValueOf(data)
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		n = v.Float()
	case reflect.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return data, nil
		}
		n = parsed
	default:
		return data, nil
	}

	if n < 0 || n > math.MaxUint16 || n != math.Trunc(n) {
		return nil, fmt.Errorf("포트 값 %v는 0-65535 사이의 정수여야 합니다", data)
	}
	return data, nil
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("default_port", d.DefaultPort)
	v.SetDefault("use_default_port", d.UseDefaultPort)
	v.SetDefault("auto_launch", d.AutoLaunch)
	v.SetDefault("auto_close", d.AutoClose)
	v.SetDefault("window_width", d.WindowWidth)
	v.SetDefault("window_height", d.WindowHeight)
	v.SetDefault("recent_ports", d.RecentPorts)
	v.SetDefault("theme", string(d.Theme))

	v.SetDefault("security.allow_localhost", d.Security.AllowLocalhost)
	v.SetDefault("security.allow_loopback", d.Security.AllowLoopback)
	v.SetDefault("security.allowed_ports", d.Security.AllowedPorts)
	v.SetDefault("security.strict_mode", d.Security.StrictMode)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

func apply(v *viper.Viper, c *AppConfig) {
	v.Set("default_port", c.DefaultPort)
	v.Set("use_default_port", c.UseDefaultPort)
	v.Set("auto_launch", c.AutoLaunch)
	v.Set("auto_close", c.AutoClose)
	v.Set("window_width", c.WindowWidth)
	v.Set("window_height", c.WindowHeight)
	v.Set("recent_ports", c.RecentPorts)
	v.Set("theme", string(c.Theme))

	v.Set("security.allow_localhost", c.Security.AllowLocalhost)
	v.Set("security.allow_loopback", c.Security.AllowLoopback)
	v.Set("security.allowed_ports", c.Security.AllowedPorts)
	v.Set("security.strict_mode", c.Security.StrictMode)

	v.Set("logging.level", c.Logging.Level)
	v.Set("logging.format", c.Logging.Format)
	v.Set("logging.file", c.Logging.File)
}

// expandPath는 ~를 홈 디렉토리로 확장합니다.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
