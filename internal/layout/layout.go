// Package layout loads the authored annotation document describing a
// screen's addressable elements into an immutable catalog. The catalog is
// process-lifetime shared read-only state.
package layout

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/deskgen/api/schemas"
	"github.com/xkilldash9x/deskgen/internal/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind classifies an addressable element.
type Kind string

const (
	KindIcon   Kind = "icon"
	KindRegion Kind = "region"
	KindText   Kind = "text"
)

// Zone names the screen area an icon belongs to.
type Zone string

const (
	ZoneDesktop Zone = "desktop"
	ZoneTaskbar Zone = "taskbar"
)

// Element is one addressable element of the authored screen. Bounding boxes
// are absolute full-frame pixels.
type Element struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"kind"`
	Zone     Zone          `json:"zone,omitempty"`
	Label    string        `json:"label,omitempty"`
	Required bool          `json:"required,omitempty"`
	BBox     geometry.BBox `json:"bbox"`
	IconFile string        `json:"icon_file,omitempty"`
}

// document is the on-disk shape of the annotation file.
type document struct {
	Version string `json:"version"`
	Screen  struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"screen"`
	Elements           []Element           `json:"elements"`
	Prompts            map[string][]string `json:"prompts"`
	LoadingIndicatorID string              `json:"loading_indicator_id,omitempty"`
}

// Catalog is the immutable, validated view of an annotation document.
type Catalog struct {
	version            string
	screenW, screenH   int
	elements           []Element
	byID               map[string]Element
	prompts            map[schemas.TaskKind][]string
	loadingIndicatorID string
}

// Load reads and parses an annotation document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading annotation document: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from annotation document bytes, validating element
// uniqueness and geometry against the declared screen size.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing annotation document: %w", err)
	}
	if doc.Screen.Width <= 0 || doc.Screen.Height <= 0 {
		return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
			"annotation screen size must be positive, got %dx%d", doc.Screen.Width, doc.Screen.Height)
	}

	screen := geometry.BBox{W: doc.Screen.Width, H: doc.Screen.Height}
	byID := make(map[string]Element, len(doc.Elements))
	for _, el := range doc.Elements {
		if el.ID == "" {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration, "annotation element with empty id")
		}
		if _, dup := byID[el.ID]; dup {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"annotation element %q declared twice", el.ID)
		}
		if el.BBox.W <= 0 || el.BBox.H <= 0 || !screen.ContainsBox(el.BBox) {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"annotation element %q bbox %+v not within %dx%d screen", el.ID, el.BBox, screen.W, screen.H)
		}
		byID[el.ID] = el
	}

	prompts := make(map[schemas.TaskKind][]string, len(doc.Prompts))
	for name, templates := range doc.Prompts {
		prompts[schemas.TaskKind(name)] = templates
	}

	if doc.LoadingIndicatorID != "" {
		if _, ok := byID[doc.LoadingIndicatorID]; !ok {
			return nil, schemas.NewPipelineError(schemas.ErrCodeConfiguration,
				"loading_indicator_id %q does not name an element", doc.LoadingIndicatorID)
		}
	}

	return &Catalog{
		version:            doc.Version,
		screenW:            doc.Screen.Width,
		screenH:            doc.Screen.Height,
		elements:           doc.Elements,
		byID:               byID,
		prompts:            prompts,
		loadingIndicatorID: doc.LoadingIndicatorID,
	}, nil
}

// Version returns the annotation document version string.
func (c *Catalog) Version() string { return c.version }

// ScreenSize returns the authored full-frame pixel dimensions.
func (c *Catalog) ScreenSize() (int, int) { return c.screenW, c.screenH }

// Element looks up an element by ID.
func (c *Catalog) Element(id string) (Element, bool) {
	el, ok := c.byID[id]
	return el, ok
}

// Icons returns the icons of a zone in authored order.
func (c *Catalog) Icons(zone Zone) []Element {
	var out []Element
	for _, el := range c.elements {
		if el.Kind == KindIcon && el.Zone == zone {
			out = append(out, el)
		}
	}
	return out
}

// RequiredIcons returns the icons of a zone that every scene must include.
func (c *Catalog) RequiredIcons(zone Zone) []Element {
	var out []Element
	for _, el := range c.Icons(zone) {
		if el.Required {
			out = append(out, el)
		}
	}
	return out
}

// OptionalIcons returns the candidate pool for vary-N selection in a zone.
func (c *Catalog) OptionalIcons(zone Zone) []Element {
	var out []Element
	for _, el := range c.Icons(zone) {
		if !el.Required {
			out = append(out, el)
		}
	}
	return out
}

// Prompts returns the authored prompt templates for a task kind.
func (c *Catalog) Prompts(kind schemas.TaskKind) []string {
	return c.prompts[kind]
}

// LoadingIndicator returns the element rendered while the scene's loading
// flag is set, if the document declares one.
func (c *Catalog) LoadingIndicator() (Element, bool) {
	if c.loadingIndicatorID == "" {
		return Element{}, false
	}
	return c.Element(c.loadingIndicatorID)
}
