// Package branding centralizes the Port Browser identity constants,
// colors and ASCII art shared by the CLI and the terminal UI.
package branding

// Application identity constants.
const (
	AppName    = "Port Browser"
	CLIName    = "Port Browser Launcher"
	BinaryName = "port-browser"
	// EnvPrefix is the prefix of configuration environment variables.
	EnvPrefix = "PORT_BROWSER"
)

// Brand colors in hex format for Lipgloss true color support.
const (
	// ColorPrimary is the main brand color (Signal Blue).
	ColorPrimary = "#3B82F6"
	// ColorDeepBlue is a darker blue for title bars.
	ColorDeepBlue = "#1E3A8A"
	// ColorSky is a light blue used on light backgrounds.
	ColorSky = "#DBEAFE"
	// ColorGreen marks allowed navigations and successful launches.
	ColorGreen = "#10B981"
	// ColorCoral is the error/danger color.
	ColorCoral = "#E11D48"
	// ColorAmber marks warnings.
	ColorAmber = "#F59E0B"
	// ColorWhite is pure white.
	ColorWhite = "#FFFFFF"
	// ColorInk is the foreground on light backgrounds.
	ColorInk = "#111827"
	// ColorLightGray is a light gray for labels.
	ColorLightGray = "#A1A1AA"
	// ColorMutedGray is a muted gray for help text.
	ColorMutedGray = "#71717A"
	// ColorBorderGray is a panel border gray for inactive elements.
	ColorBorderGray = "#52525B"
)

// Banner is a small browser window with a port plug for CLI startup display.
const Banner = `
  .----------------.
  | o o o  :port   |
  |----------------|
  |   localhost    |
  '-------++-------'
          ||`

// StartupBanner returns the full branded startup banner
// with the application name appended below the ASCII art.
func StartupBanner() string {
	return Banner + "\n" +
		"  " + CLIName + "\n"
}
