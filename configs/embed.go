// Package configs provides the embedded configuration template for
// faqmatch.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. `faqmatch config init` writes it out for the
// user to edit; internal/config then loads it with defaults and
// FAQMATCH_* environment overrides layered around it.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `faqmatch config init`.
//
//go:embed faqmatch.example.yaml
var ConfigTemplate string
