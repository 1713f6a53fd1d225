package ansi

func fg256(n string) string   { return "\x1b[38;5;" + n + "m" }
func bold256(n string) string { return "\x1b[1;38;5;" + n + "m" }

// PaletteDefault mirrors the initial values of the package variables.
var PaletteDefault = Palette{
	Key:       Cyan,
	String:    BrightBlue,
	Num:       Magenta,
	Bool:      Yellow,
	Nil:       Faint,
	Trace:     Blue,
	Debug:     Green,
	Info:      BrightGreen,
	Warn:      BrightYellow,
	Error:     BrightRed,
	Critical:  RedBackground,
	Timestamp: Faint,
	Category:  Faint,
	Scope:     Gray,
	Message:   Bold,
}

var PaletteNord = Palette{
	Key:       fg256("110"),
	String:    fg256("151"),
	Num:       fg256("176"),
	Bool:      fg256("222"),
	Nil:       fg256("60"),
	Trace:     fg256("67"),
	Debug:     fg256("109"),
	Info:      bold256("150"),
	Warn:      bold256("222"),
	Error:     bold256("174"),
	Critical:  "\x1b[1;38;5;255;48;5;131m",
	Timestamp: fg256("60"),
	Category:  fg256("103"),
	Scope:     fg256("146"),
	Message:   bold256("255"),
}

var PaletteDracula = Palette{
	Key:       fg256("117"),
	String:    fg256("228"),
	Num:       fg256("141"),
	Bool:      fg256("212"),
	Nil:       fg256("61"),
	Trace:     fg256("61"),
	Debug:     fg256("117"),
	Info:      bold256("84"),
	Warn:      bold256("215"),
	Error:     bold256("203"),
	Critical:  "\x1b[1;38;5;231;48;5;203m",
	Timestamp: fg256("61"),
	Category:  fg256("141"),
	Scope:     fg256("146"),
	Message:   bold256("231"),
}

var PaletteGruvbox = Palette{
	Key:       fg256("108"),
	String:    fg256("142"),
	Num:       fg256("175"),
	Bool:      fg256("214"),
	Nil:       fg256("245"),
	Trace:     fg256("109"),
	Debug:     fg256("108"),
	Info:      bold256("142"),
	Warn:      bold256("214"),
	Error:     bold256("167"),
	Critical:  "\x1b[1;38;5;229;48;5;124m",
	Timestamp: fg256("245"),
	Category:  fg256("246"),
	Scope:     fg256("250"),
	Message:   bold256("223"),
}

var PaletteTokyoNight = Palette{
	Key:       fg256("111"),
	String:    fg256("150"),
	Num:       fg256("215"),
	Bool:      fg256("176"),
	Nil:       fg256("60"),
	Trace:     fg256("61"),
	Debug:     fg256("117"),
	Info:      bold256("150"),
	Warn:      bold256("179"),
	Error:     bold256("204"),
	Critical:  "\x1b[1;38;5;231;48;5;161m",
	Timestamp: fg256("60"),
	Category:  fg256("103"),
	Scope:     fg256("146"),
	Message:   bold256("189"),
}

var PaletteSolarizedDark = Palette{
	Key:       fg256("37"),
	String:    fg256("64"),
	Num:       fg256("125"),
	Bool:      fg256("136"),
	Nil:       fg256("240"),
	Trace:     fg256("61"),
	Debug:     fg256("33"),
	Info:      bold256("64"),
	Warn:      bold256("136"),
	Error:     bold256("160"),
	Critical:  "\x1b[1;38;5;230;48;5;160m",
	Timestamp: fg256("240"),
	Category:  fg256("244"),
	Scope:     fg256("245"),
	Message:   bold256("230"),
}

var PaletteOneDark = Palette{
	Key:       fg256("39"),
	String:    fg256("114"),
	Num:       fg256("173"),
	Bool:      fg256("180"),
	Nil:       fg256("59"),
	Trace:     fg256("59"),
	Debug:     fg256("38"),
	Info:      bold256("114"),
	Warn:      bold256("180"),
	Error:     bold256("204"),
	Critical:  "\x1b[1;38;5;231;48;5;167m",
	Timestamp: fg256("59"),
	Category:  fg256("145"),
	Scope:     fg256("145"),
	Message:   bold256("188"),
}

var PaletteSynthwave84 = Palette{
	Key:       fg256("51"),
	String:    fg256("222"),
	Num:       fg256("213"),
	Bool:      fg256("207"),
	Nil:       fg256("97"),
	Trace:     fg256("97"),
	Debug:     fg256("81"),
	Info:      bold256("48"),
	Warn:      bold256("227"),
	Error:     bold256("197"),
	Critical:  "\x1b[1;38;5;231;48;5;198m",
	Timestamp: fg256("97"),
	Category:  fg256("141"),
	Scope:     fg256("183"),
	Message:   bold256("231"),
}

var PaletteKanagawa = Palette{
	Key:       fg256("110"),
	String:    fg256("107"),
	Num:       fg256("176"),
	Bool:      fg256("179"),
	Nil:       fg256("242"),
	Trace:     fg256("60"),
	Debug:     fg256("73"),
	Info:      bold256("107"),
	Warn:      bold256("179"),
	Error:     bold256("167"),
	Critical:  "\x1b[1;38;5;230;48;5;88m",
	Timestamp: fg256("242"),
	Category:  fg256("103"),
	Scope:     fg256("144"),
	Message:   bold256("187"),
}

var PaletteGithubLight = Palette{
	Key:       fg256("25"),
	String:    fg256("22"),
	Num:       fg256("90"),
	Bool:      fg256("130"),
	Nil:       fg256("244"),
	Trace:     fg256("244"),
	Debug:     fg256("31"),
	Info:      bold256("28"),
	Warn:      bold256("130"),
	Error:     bold256("124"),
	Critical:  "\x1b[1;38;5;231;48;5;124m",
	Timestamp: fg256("244"),
	Category:  fg256("240"),
	Scope:     fg256("240"),
	Message:   bold256("235"),
}
