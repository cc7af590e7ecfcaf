package paper

// DefaultColorID is used for papers without a color or with an unknown one.
const DefaultColorID = "blue"

// Color is a palette entry for rendering a paper card.
type Color struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hex       string `json:"hex"`
	TextColor string `json:"textColor"`
}

// Palette is the fixed set of colors a paper can use.
var Palette = []Color{
	{ID: "blue", Name: "Blue", Hex: "#89b9f7ff", TextColor: "#ffffff"},
	{ID: "red", Name: "Red", Hex: "#f38b80ff", TextColor: "#ffffff"},
	{ID: "orange", Name: "Orange", Hex: "#f0a96aff", TextColor: "#ffffff"},
	{ID: "yellow", Name: "Yellow", Hex: "#eff160ff", TextColor: "#000000"},
	{ID: "green", Name: "Green", Hex: "#62db7dff", TextColor: "#ffffff"},
	{ID: "purple", Name: "Purple", Hex: "#c28ad8ff", TextColor: "#ffffff"},
	{ID: "light-grey", Name: "Light Grey", Hex: "#BDC3C7", TextColor: "#000000"},
	{ID: "dark-grey", Name: "Dark Grey", Hex: "#5e6768ff", TextColor: "#ffffff"},
}

// ColorByID looks up a palette entry, falling back to the default color.
func ColorByID(id string) Color {
	var fallback Color
	for _, c := range Palette {
		if c.ID == id {
			return c
		}
		if c.ID == DefaultColorID {
			fallback = c
		}
	}
	return fallback
}

// IsColorID reports whether id names a palette entry.
func IsColorID(id string) bool {
	for _, c := range Palette {
		if c.ID == id {
			return true
		}
	}
	return false
}
