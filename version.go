package partree

import _ "embed"

// Version is the release of the library and the partree CLI.
//
//go:embed VERSION
var Version string
