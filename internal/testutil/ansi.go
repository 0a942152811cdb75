// Package testutil holds helpers shared by picalc's tests.
package testutil

import "regexp"

// ansiRegex matches the CSI sequences emitted by internal/ui themes and the
// progress spinner: ESC [ followed by parameters and a final letter.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes colour and cursor codes from s, so that tests can
// match the digits, banners and comparison tables picalc prints whatever
// the active theme is.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
