// Package cmd는 Port Browser CLI의 명령어를 정의합니다.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/insajin/port-browser/internal/app"
	"github.com/insajin/port-browser/internal/branding"
	"github.com/insajin/port-browser/internal/config"
	"github.com/insajin/port-browser/internal/launcher"
	"github.com/insajin/port-browser/internal/logger"
	"github.com/insajin/port-browser/internal/metrics"
	"github.com/insajin/port-browser/internal/validator"
	"github.com/insajin/port-browser/internal/webview"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// defaultPortArg는 포트 인자가 없을 때 사용하는 포트입니다.
const defaultPortArg = "3000"

// listenProbeTimeout은 포트에서 서버가 응답하는지 확인하는 시간입니다.
const listenProbeTimeout = 300 * time.Millisecond

var (
	// 전역 플래그
	cfgFile     string
	verbose     bool
	browserName string

	// 루트 명령 플래그
	devMode  bool
	embedded bool
	useHTTPS bool
	sizeFlag string

	// PersistentPreRunE에서 초기화됩니다
	store  *config.Store
	appCfg *config.AppConfig
	log    zerolog.Logger

	// 버전 정보 (main에서 주입)
	appVersion   string
	appCommit    string
	appBuildDate string
)

// rootCmd는 CLI의 루트 명령어입니다.
var rootCmd = &cobra.Command{
	Use:   branding.BinaryName + " [port]",
	Short: "localhost 포트를 브라우저로 엽니다",
	Long: `Port Browser는 http://localhost:<port>를 기본 브라우저나 내장 창으로 엽니다.

포트를 생략하면 3000을 사용합니다. --embedded 모드에서는 내장 창의 모든
페이지 이동이 보안 정책(localhost/루프백 주소, 허용 포트 목록)을 통과해야 합니다.

설정은 ` + branding.EnvPrefix + `_ 접두사 환경변수로 덮어쓸 수 있습니다.
예시: ` + branding.EnvPrefix + `_DEFAULT_PORT=5173`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 로거 초기화
		return initApp(cmd)
	},
	RunE: runRoot,
}

// Execute는 루트 명령어를 실행합니다.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "오류: %v\n", err)
	}
	return err
}

// SetVersionInfo는 버전 정보를 설정합니다.
func SetVersionInfo(version, commit, buildDate string) {
	appVersion = version
	appCommit = commit
	appBuildDate = buildDate
}

// GetVersionInfo는 버전 정보를 반환합니다.
func GetVersionInfo() (version, commit, buildDate string) {
	return appVersion, appCommit, appBuildDate
}

func init() {
	// 전역 플래그 정의
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"설정 파일 경로 (기본값: <사용자 설정 디렉토리>/port-browser/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"상세 로그 출력 (debug 레벨)")
	rootCmd.PersistentFlags().StringVar(&browserName, "browser", "",
		"사용할 브라우저 (예: firefox, \"Google Chrome\")")

	rootCmd.Flags().BoolVar(&devMode, "dev", false, "내장 창에서 개발자 도구를 엽니다")
	rootCmd.Flags().BoolVar(&embedded, "embedded", false, "보안 필터가 적용된 내장 창으로 엽니다")
	rootCmd.Flags().BoolVar(&useHTTPS, "https", false, "https://로 엽니다")
	rootCmd.Flags().StringVar(&sizeFlag, "size", "", "내장 창 크기 (예: 800x600), 설정에 저장됩니다")
}

// initApp은 설정을 불러오고 로거를 초기화합니다.
// 설정 우선순위: 환경변수 > 설정파일 > 기본값
func initApp(cmd *cobra.Command) error {
	// 로거를 만들기 전에 로깅 설정부터 읽습니다
	cfg := config.NewStore(config.WithPath(cfgFile)).Load()

	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	// TUI는 터미널을 사용하므로 파일이 없으면 로그를 끕니다
	if cmd.Name() == uiCmd.Name() && logCfg.File == "" {
		logCfg.Level = "off"
	}
	log = logger.Setup(logCfg)

	store = config.NewStore(config.WithPath(cfgFile), config.WithLogger(log))
	appCfg = store.Load()
	return nil
}

// runRoot는 포트 하나를 검증하고 브라우저를 엽니다.
func runRoot(cmd *cobra.Command, args []string) error {
	input := defaultPortArg
	if len(args) > 0 {
		input = args[0]
	}

	port, err := validator.ValidatePort(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	warnIfNotListening(ctx, port)

	m := metrics.NewMetrics()
	var wv *webview.Session
	opener := selectOpener()
	if embedded {
		opener = launcher.OpenerFunc(func(ctx context.Context, url string) error {
			return wv.Open(ctx, url)
		})
	}

	l := launcher.New(launcher.WithOpener(opener), launcher.WithMetrics(m), launcher.WithLogger(log))
	session := app.NewSession(appCfg,
		app.WithStore(store),
		app.WithLauncher(l),
		app.WithMetrics(m),
		app.WithLogger(log),
		app.WithHTTPS(useHTTPS),
		// 실행한 포트는 내장 창에서 항상 허용됩니다
		app.WithPolicy(appCfg.Security.Policy().WithPorts(uint16(port))),
	)
	d := app.NewDispatcher(session)

	if sizeFlag != "" {
		w, h, err := parseSize(sizeFlag)
		if err != nil {
			return err
		}
		d.Dispatch(ctx, app.Resize{Width: w, Height: h})
	}

	if embedded {
		cfg := session.Config()
		wv = webview.New(session.Filter(), webview.Options{
			Width:    int(cfg.WindowWidth),
			Height:   int(cfg.WindowHeight),
			DevTools: devMode,
		}, webview.WithLogger(session.Logger()), webview.WithMetrics(m))
		defer wv.Close()
	}

	out := d.Dispatch(ctx, app.Launch{Input: input, AutoClose: session.Config().AutoClose})
	if out.Err != nil {
		return out.Err
	}
	fmt.Println(out.Message)

	// 최근 포트 목록과 창 크기를 기억합니다
	cfg := session.Config()
	if res := d.Dispatch(ctx, app.SaveConfig{UseDefaultPort: cfg.UseDefaultPort, AutoClose: cfg.AutoClose}); res.Err != nil {
		log.Warn().Err(res.Err).Msg("설정 저장 실패")
	}

	if embedded {
		fmt.Println("창을 닫거나 Ctrl+C를 누르면 종료합니다")
		if stdinIsTerminal() {
			fmt.Println("r + Enter: 새로고침, c + Enter: 캐시 삭제")
			go windowControls(ctx, wv, os.Stdin, os.Stdout)
		}
		if err := wv.Wait(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		logMetrics(m)
	}
	return nil
}

// windowController는 내장 창에서 실행할 수 있는 동작입니다.
type windowController interface {
	Reload(ctx context.Context) error
	ClearCache(ctx context.Context) error
}

// windowControls는 입력 한 줄마다 내장 창 명령을 실행합니다 (r: 새로고침, c: 캐시 삭제).
// 알 수 없는 명령은 무시합니다.
func windowControls(ctx context.Context, wc windowController, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "r":
			if err = wc.Reload(ctx); err == nil {
				fmt.Fprintln(out, "새로고침했습니다")
			}
		case "c":
			if err = wc.ClearCache(ctx); err == nil {
				fmt.Fprintln(out, "캐시를 삭제했습니다")
			}
		default:
			continue
		}
		if err != nil {
			log.Warn().Err(err).Msg("내장 창 명령 실패")
			fmt.Fprintf(out, "명령 실패: %v\n", err)
		}
	}
}

// selectOpener는 --browser 플래그에 맞는 Opener를 반환합니다.
func selectOpener() launcher.Opener {
	if browserName != "" {
		return launcher.BrowserOpener(browserName)
	}
	return launcher.SystemOpener()
}

// warnIfNotListening은 포트에서 응답하는 서버가 없으면 경고합니다.
func warnIfNotListening(ctx context.Context, port validator.Port) {
	if validator.IsListening(ctx, port, listenProbeTimeout) {
		return
	}
	log.Warn().Uint16("port", uint16(port)).Msg("포트에서 응답하는 서버가 없습니다")
	fmt.Fprintf(os.Stderr, "경고: localhost:%d에서 실행 중인 서버가 없습니다\n", port)
}

// parseSize는 "800x600" 형식의 창 크기를 파싱합니다.
func parseSize(s string) (uint32, uint32, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("창 크기 형식이 잘못되었습니다: %s (예: 800x600)", s)
	}
	w, err := strconv.ParseUint(strings.TrimSpace(ws), 10, 32)
	if err != nil || w == 0 {
		return 0, 0, fmt.Errorf("창 너비가 잘못되었습니다: %s", ws)
	}
	h, err := strconv.ParseUint(strings.TrimSpace(hs), 10, 32)
	if err != nil || h == 0 {
		return 0, 0, fmt.Errorf("창 높이가 잘못되었습니다: %s", hs)
	}
	return uint32(w), uint32(h), nil
}

// logMetrics는 세션 통계를 debug 레벨로 기록합니다.
func logMetrics(m *metrics.Metrics) {
	data, err := m.ToJSON()
	if err != nil {
		return
	}
	log.Debug().RawJSON("metrics", data).Msg("세션 통계")
}
