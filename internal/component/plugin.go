package component

// Type tags of the default plugin.
const (
	TypeVideo   = "video"
	TypeImage   = "image"
	TypeText    = "text"
	TypeBrowser = "browser"
)

// DefaultPlugin returns the built-in component types.
func DefaultPlugin() Plugin {
	return Plugin{
		Name: "default",
		Components: []Definition{
			{Type: TypeVideo, Label: "Video", New: NewVideo},
			{Type: TypeImage, Label: "Image", New: NewImage},
			{Type: TypeText, Label: "Text", New: NewText},
			{Type: TypeBrowser, Label: "Browser", New: NewBrowser},
		},
	}
}
