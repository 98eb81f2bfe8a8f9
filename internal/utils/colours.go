package utils

// Palette is one colour theme for the whole interface.
type Palette struct {
	Background    string
	Text          string
	Title         string
	Header        string
	ContactHeader string
	Border        string
	Input         string
	Button        string
	ButtonHover   string
	Sidebar       string
	Muted         string
	Error         string
	Success       string
}

var Light = Palette{
	Background:    "#e2e2e2",
	Text:          "#000000",
	Title:         "#6800ca",
	Header:        "#6800ca",
	ContactHeader: "#b9b9b9",
	Border:        "#cccccc",
	Input:         "#d8d7d7",
	Button:        "#9353e6",
	ButtonHover:   "#7506be",
	Sidebar:       "#f1f1f1",
	Muted:         "#555555",
	Error:         "#c62828",
	Success:       "#2e7d32",
}

var Dark = Palette{
	Background:    "#333333",
	Text:          "#ffffff",
	Title:         "#eeeeee",
	Header:        "#1f1f1f",
	ContactHeader: "#292929",
	Border:        "#666666",
	Input:         "#161616",
	Button:        "#7506be",
	ButtonHover:   "#5a0494",
	Sidebar:       "#202020",
	Muted:         "#aaaaaa",
	Error:         "#f38ba8",
	Success:       "#a6e3a1",
}

func PaletteFor(dark bool) Palette {
	if dark {
		return Dark
	}
	return Light
}
