// Package logger는 구조화된 로깅을 제공합니다.
// 로그에 기록되는 URL의 자격 증명(비밀번호, 토큰 쿼리 파라미터)은 항상 마스킹됩니다.
package logger

import (
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/insajin/port-browser/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// URL 안의 "://user:password@" 형태
var userinfoPattern = regexp.MustCompile(`(://[^/\s:@]+:)([^@\s/]+)(@)`)

// 민감한 쿼리 파라미터 (?token=..., &api_key=...)
var queryPattern = regexp.MustCompile(`(?i)([?&](?:access_token|token|api_key|apikey|key|secret|password|sig)=)([^&\s#"]+)`)

// Bearer 토큰
var bearerPattern = regexp.MustCompile(`(Bearer\s+)([a-zA-Z0-9\-_\.]+)`)

// maskedWriter는 민감 정보를 마스킹하는 io.Writer입니다.
type maskedWriter struct {
	underlying io.Writer
}

// Write는 민감 정보를 마스킹한 후 기록합니다.
// 원래 길이를 반환하여 zerolog가 짧은 쓰기로 판단하지 않게 합니다.
func (w *maskedWriter) Write(p []byte) (int, error) {
	masked := MaskSensitive(string(p))
	if _, err := w.underlying.Write([]byte(masked)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Setup은 전역 로거를 초기화하고 반환합니다.
// 로그 파일을 열 수 없으면 stderr를 사용합니다.
func Setup(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.File).Msg("로그 파일을 열 수 없어 stderr를 사용합니다")
		} else {
			output = file
		}
	}

	log.Logger = New(cfg, output)
	return log.Logger
}

// New는 out으로 기록하는 로거를 생성합니다. 전역 상태는 바꾸지 않습니다.
func New(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	masked := &maskedWriter{underlying: out}

	var w io.Writer = masked
	if cfg.Format == "text" {
		w = zerolog.ConsoleWriter{
			Out:        masked,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.File != "",
		}
	}

	return zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

// parseLevel은 문자열 레벨을 zerolog.Level로 변환합니다.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// MaskSensitive는 문자열에서 URL 자격 증명과 토큰을 마스킹합니다.
func MaskSensitive(input string) string {
	result := userinfoPattern.ReplaceAllString(input, "${1}***${3}")
	result = queryPattern.ReplaceAllStringFunc(result, func(match string) string {
		parts := queryPattern.FindStringSubmatch(match)
		return parts[1] + maskValue(parts[2])
	})
	result = bearerPattern.ReplaceAllStringFunc(result, func(match string) string {
		parts := bearerPattern.FindStringSubmatch(match)
		return parts[1] + maskValue(parts[2])
	})
	return result
}

// maskValue는 앞 4자와 뒤 4자만 남기고 나머지는 ***로 대체합니다.
// 8자 이하의 값은 전체를 가립니다.
func maskValue(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***" + value[len(value)-4:]
}

// WithSession은 세션 ID를 컨텍스트에 추가한 로거를 반환합니다.
func WithSession(base zerolog.Logger, sessionID string) zerolog.Logger {
	return base.With().Str("session_id", sessionID).Logger()
}
