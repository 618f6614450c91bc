package output

import (
	"io"
	"os"
)

// ResolveColorMode maps the --color flag ("auto", "always", "never")
// to an effective color decision. In "auto" mode the NO_COLOR
// convention is honored before falling back to TTY detection.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTTY
}

// IsTTY reports whether the writer is attached to a terminal. Anything
// that is not a character-device os.File (pipes, buffers, files) is
// treated as non-interactive.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
