package ui

import "github.com/gdamore/tcell/v2"

// TokyoNight color palette
var (
	ColorBg          = tcell.NewRGBColor(0x1a, 0x1b, 0x26) // #1a1b26 - Dark background
	ColorBgDark      = tcell.NewRGBColor(0x16, 0x16, 0x1e) // #16161e - Darker background
	ColorBgHighlight = tcell.NewRGBColor(0x29, 0x2e, 0x42) // #292e42 - Highlighted background

	ColorFg     = tcell.NewRGBColor(0xc0, 0xca, 0xf5) // #c0caf5 - Default text
	ColorFgDark = tcell.NewRGBColor(0x56, 0x5f, 0x89) // #565f89 - Dimmed text

	ColorBlue    = tcell.NewRGBColor(0x7a, 0xa2, 0xf7) // #7aa2f7 - Primary blue
	ColorBlue7   = tcell.NewRGBColor(0x39, 0x4b, 0x70) // #394b70 - Dark blue
	ColorCyan    = tcell.NewRGBColor(0x7d, 0xcf, 0xff) // #7dcfff - Cyan
	ColorGreen   = tcell.NewRGBColor(0x9e, 0xce, 0x6a) // #9ece6a - Green
	ColorMagenta = tcell.NewRGBColor(0xbb, 0x9a, 0xf7) // #bb9af7 - Purple/Magenta
	ColorOrange  = tcell.NewRGBColor(0xff, 0x9e, 0x64) // #ff9e64 - Orange
	ColorRed     = tcell.NewRGBColor(0xf7, 0x76, 0x8e) // #f7768e - Red
	ColorYellow  = tcell.NewRGBColor(0xe0, 0xaf, 0x68) // #e0af68 - Yellow

	// UI-specific color mappings
	ColorSelection = ColorBgHighlight // Selected item background
	ColorHeader    = ColorBlue        // Headers
	ColorHighlight = ColorYellow      // Search highlights
	ColorPlaying   = ColorGreen       // Currently playing indicator
	ColorPaused    = ColorYellow      // Paused indicator
	ColorToggleOn  = ColorCyan        // Shuffle/repeat enabled
	ColorToggleOff = ColorFgDark      // Shuffle/repeat disabled
	ColorError     = ColorRed         // Error messages
	ColorSuccess   = ColorGreen       // Success messages
	ColorDimmed    = ColorFgDark      // Dimmed text
	ColorBright    = ColorFg          // Bright text
	ColorMenu      = ColorBlue7       // Popup menu background
)
