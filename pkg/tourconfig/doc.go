/*
Package tourconfig fetches and parses the tour configuration.

A configuration can come from an http(s) URL, a local JSON/YAML file, or a loam
directory holding one document per page. Every failure is reported wrapped in
domain.ErrConfigFetchFailed so the controller can fall back to an empty config.
*/
package tourconfig
