// Package textutil cleans untrusted text before it is stored or rendered.
//
// Provider strings can carry markup, control characters and mixed Unicode
// forms. SanitizeText reduces a value to a single line of plain text,
// SanitizeTextarea does the same while keeping line breaks, and Slug derives
// stable lower-case identifiers for vocabulary terms.
package textutil
