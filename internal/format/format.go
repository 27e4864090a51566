// Package format renders species names and dex numbers for display.
package format

import (
	"fmt"
	"strings"
)

// Name turns a hyphenated species slug into a display name: "mr-mime" becomes "Mr Mime".
func Name(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// DexNumber pads id to three digits: 25 becomes "#025".
func DexNumber(id int) string {
	return fmt.Sprintf("#%03d", id)
}
