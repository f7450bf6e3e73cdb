package tourconfig

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from a file extension or content type.
// JSON is the default.
func DetectFormat(name, contentType string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	if strings.Contains(strings.ToLower(contentType), "yaml") {
		return FormatYAML
	}
	return FormatJSON
}

// Parse decodes a configuration document and fills missing sections.
func Parse(data []byte, format Format) (*domain.TourConfig, error) {
	var cfg domain.TourConfig
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", domain.ErrConfigFetchFailed, format, err)
	}
	normalize(&cfg)
	return &cfg, nil
}

func normalize(cfg *domain.TourConfig) {
	if cfg.PageList == nil {
		cfg.PageList = map[string]domain.PageID{}
	}
	if cfg.PageDrivers == nil {
		cfg.PageDrivers = map[domain.PageID][]domain.Step{}
	}
	if cfg.ForceStartSelectors == nil {
		cfg.ForceStartSelectors = map[string]string{}
	}
	if cfg.InitConfig == nil {
		cfg.InitConfig = map[string]any{}
	}
}

// DecodeOverlayOptions decodes initConfig over the engine defaults.
// Unknown keys are kept in OverlayOptions.Extra.
func DecodeOverlayOptions(initConfig map[string]any) (domain.OverlayOptions, error) {
	opts := domain.DefaultOverlayOptions()
	if len(initConfig) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, err
	}
	if err := decoder.Decode(initConfig); err != nil {
		return domain.DefaultOverlayOptions(), fmt.Errorf("invalid initConfig: %w", err)
	}
	return opts, nil
}

// Validate returns human-readable problems that do not prevent use of cfg.
func Validate(cfg *domain.TourConfig) []string {
	var problems []string

	mapped := make(map[domain.PageID]bool, len(cfg.PageList))
	for path, page := range cfg.PageList {
		if page == "" {
			problems = append(problems, fmt.Sprintf("path %q maps to an empty page name", path))
			continue
		}
		mapped[page] = true
	}

	for page, steps := range cfg.PageDrivers {
		if !mapped[page] {
			problems = append(problems, fmt.Sprintf("page %q has steps but no path in pagelist", page))
		}
		if len(steps) == 0 {
			problems = append(problems, fmt.Sprintf("page %q has an empty step list", page))
		}
		for i, step := range steps {
			if step.Element == "" {
				problems = append(problems, fmt.Sprintf("page %q step %d has no element", page, i+1))
			}
		}
	}

	for path := range cfg.ForceStartSelectors {
		if _, ok := cfg.PageList[path]; !ok {
			problems = append(problems, fmt.Sprintf("force-start path %q is not in pagelist", path))
		}
	}

	if _, err := DecodeOverlayOptions(cfg.InitConfig); err != nil {
		problems = append(problems, err.Error())
	}

	sort.Strings(problems)
	return problems
}
