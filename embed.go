package galengine

import "embed"

// embeddedLocales contains the default locale message catalogs shipped with
// the engine. Store-backed overrides from the admin dashboard are merged on
// top at load time.
//
//go:embed locales/*.json
var embeddedLocales embed.FS
