// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides link, account and action icons for every terminal

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// terminals that usually ship with a Nerd Font configured
var nerdFontTerminals = []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"}

func detectNerdFonts() bool {
	if env := os.Getenv("INDEXNEST_NERD_FONTS"); env != "" {
		return env == "1" || strings.EqualFold(env, "true")
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")
	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}
	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Links and their lifecycle
	Link       = Icon{"󰌹", "⛓"} // nf-md-link_variant
	Pending    = Icon{"󰔟", "○"} // nf-md-timer_sand
	Processing = Icon{"󰑮", "◔"} // nf-md-run
	Indexed    = Icon{"", "✓"} // nf-oct-check_circle
	Failed     = Icon{"", "✗"} // nf-oct-x_circle

	// Account
	User    = Icon{"󰀄", "☺"} // nf-md-account
	Key     = Icon{"󰌆", "⚿"} // nf-md-key
	Credits = Icon{"󰆬", "¢"} // nf-md-currency_usd_circle

	// Status indicators
	CheckOK  = Icon{"", "✓"}
	Warning  = Icon{"", "⚠"}
	Critical = Icon{"", "✗"}
	Info     = Icon{"", "ℹ"}

	Chart = Icon{"󰄭", "▁"} // nf-md-chart_line
	Gauge = Icon{"󰓅", "◐"} // nf-md-gauge

	// Actions
	Submit  = Icon{"󰐕", "+"} // nf-md-plus
	Search  = Icon{"󰍉", "⌕"} // nf-md-magnify
	Filter  = Icon{"󰈲", "▽"} // nf-md-filter
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Retry   = Icon{"󰑐", "⟲"} // nf-md-reload
	Delete  = Icon{"󰆴", "⌫"} // nf-md-delete
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Logout  = Icon{"󰍃", "⇥"} // nf-md-logout
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app

	App = Icon{"󱞁", "◈"} // nf-md-web_sync
)
