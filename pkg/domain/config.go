package domain

import "fmt"

// TourConfig is the host-supplied configuration document.
type TourConfig struct {
	// PageList maps navigation paths to page identities.
	PageList map[string]PageID `json:"pagelist" yaml:"pagelist"`

	// PageDrivers maps page identities to their ordered steps.
	PageDrivers map[PageID][]Step `json:"pageDriversMap" yaml:"pageDriversMap"`

	// ForceStartSelectors maps navigation paths to the "start tutorial" affordance.
	ForceStartSelectors map[string]string `json:"forceStartSelectors" yaml:"forceStartSelectors"`

	// InitConfig holds the overlay engine options, decoded into OverlayOptions.
	InitConfig map[string]any `json:"initConfig" yaml:"initConfig"`
}

// Step is one highlight of a tour.
type Step struct {
	Element string  `json:"element" yaml:"element" mapstructure:"element"`
	Popover Popover `json:"popover" yaml:"popover" mapstructure:"popover"`
}

// Popover holds the step text plus the auto-advance hints.
type Popover struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Position    string `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`

	// HopeElement is the element expected to exist when this step is reached.
	HopeElement string `json:"hopeElement,omitempty" yaml:"hopeElement,omitempty" mapstructure:"hopeElement"`
	// NextClick is clicked to progress when the next step's HopeElement is missing.
	NextClick string `json:"nextClick,omitempty" yaml:"nextClick,omitempty" mapstructure:"nextClick"`
}

// EmptyTourConfig returns a config where every lookup finds nothing.
func EmptyTourConfig() *TourConfig {
	return &TourConfig{
		PageList:            map[string]PageID{},
		PageDrivers:         map[PageID][]Step{},
		ForceStartSelectors: map[string]string{},
		InitConfig:          map[string]any{},
	}
}

// ResolvePage returns the page identity for a navigation path.
func (c *TourConfig) ResolvePage(path string) (PageID, error) {
	if c == nil || c.PageList == nil {
		return "", fmt.Errorf("%w: %s", ErrUnmappedPage, path)
	}
	page, ok := c.PageList[path]
	if !ok || page == "" {
		return "", fmt.Errorf("%w: %s", ErrUnmappedPage, path)
	}
	return page, nil
}

// Steps returns the steps defined for a page, or nil.
func (c *TourConfig) Steps(page PageID) []Step {
	if c == nil || c.PageDrivers == nil {
		return nil
	}
	return c.PageDrivers[page]
}

// ForceStartSelector returns the forced-start selector of a path, or the default.
func (c *TourConfig) ForceStartSelector(path string) string {
	if c != nil && c.ForceStartSelectors != nil {
		if sel := c.ForceStartSelectors[path]; sel != "" {
			return sel
		}
	}
	return DefaultForceStartSelector
}

// OverlayOptions are the overlay engine settings.
// OnNext and OnDeselected are the two callback slots injected by the controller.
type OverlayOptions struct {
	ClassName        string  `mapstructure:"className"`
	Animate          bool    `mapstructure:"animate"`
	Opacity          float64 `mapstructure:"opacity"`
	Padding          int     `mapstructure:"padding"`
	AllowClose       bool    `mapstructure:"allowClose"`
	OverlayClickNext bool    `mapstructure:"overlayClickNext"`
	DoneBtnText      string  `mapstructure:"doneBtnText"`
	CloseBtnText     string  `mapstructure:"closeBtnText"`
	NextBtnText      string  `mapstructure:"nextBtnText"`
	PrevBtnText      string  `mapstructure:"prevBtnText"`
	ShowButtons      bool    `mapstructure:"showButtons"`
	KeyboardControl  bool    `mapstructure:"keyboardControl"`

	// Extra keeps options the core does not interpret.
	Extra map[string]any `mapstructure:",remain"`

	OnNext       func() `mapstructure:"-"`
	OnDeselected func() `mapstructure:"-"`
}

// DefaultOverlayOptions mirrors the overlay engine defaults.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		Animate:         true,
		Opacity:         0.75,
		Padding:         10,
		AllowClose:      true,
		DoneBtnText:     "Done",
		CloseBtnText:    "Close",
		NextBtnText:     "Next",
		PrevBtnText:     "Previous",
		ShowButtons:     true,
		KeyboardControl: true,
	}
}
