/*
Package assets loads the stylesheet and script a tour depends on, with ordered
fallback across mirrors.

Candidates of one AssetRequest are tried strictly one after another. Each attempt
attaches a ResourceNode to the document head and races the asset's completion
signal against the per-attempt timeout. A losing attempt is cancelled and its node
detached, so nothing from an abandoned attempt survives into later state.

Stylesheets complete once fetched and tokenised without scanner errors; scripts
complete once fetched, compiled and executed in the shared ScriptRuntime. An
abandoned attempt is waited for before the next candidate starts.
*/
package assets
