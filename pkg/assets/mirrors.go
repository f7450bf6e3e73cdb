package assets

import "github.com/aretw0/tourguide/pkg/domain"

// Default mirrors of the overlay engine, fastest first.
var (
	DefaultStylesheetMirrors = []string{
		"https://cdn.bootcdn.net/ajax/libs/driver.js/0.9.8/driver.min.css",
		"https://cdnjs.cloudflare.com/ajax/libs/driver.js/0.9.8/driver.min.css",
		"https://cdn.staticfile.net/driver.js/0.9.8/driver.min.css",
	}
	DefaultScriptMirrors = []string{
		"https://cdn.bootcdn.net/ajax/libs/driver.js/0.9.8/driver.min.js",
		"https://cdnjs.cloudflare.com/ajax/libs/driver.js/0.9.8/driver.min.js",
		"https://cdn.staticfile.net/driver.js/0.9.8/driver.min.js",
	}
)

// StylesheetRequest builds a stylesheet request with the default timeout.
func StylesheetRequest(urls ...string) domain.AssetRequest {
	if len(urls) == 0 {
		urls = DefaultStylesheetMirrors
	}
	return domain.AssetRequest{Kind: domain.AssetStylesheet, URLs: urls, Timeout: domain.DefaultAssetTimeout}
}

// ScriptRequest builds a script request with the default timeout.
func ScriptRequest(urls ...string) domain.AssetRequest {
	if len(urls) == 0 {
		urls = DefaultScriptMirrors
	}
	return domain.AssetRequest{Kind: domain.AssetScript, URLs: urls, Timeout: domain.DefaultAssetTimeout}
}
