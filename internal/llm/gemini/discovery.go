package gemini

import (
	"slices"
	"strings"
)

const generateContentMethod = "generateContent"

type ModelInfo struct {
	Name                       string
	SupportedGenerationMethods []string
}

// SelectModel picks, in order: the first preferred model that supports
// generateContent; the first stable flash or pro model; any model that
// supports generateContent; the first fallback.
func SelectModel(available []ModelInfo, preferred []string, fallback []string) string {
	var usable []string
	for _, m := range available {
		if slices.Contains(m.SupportedGenerationMethods, generateContentMethod) {
			usable = append(usable, strings.TrimPrefix(m.Name, "models/"))
		}
	}

	for _, want := range preferred {
		if slices.Contains(usable, want) {
			return want
		}
	}

	for _, name := range usable {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "preview") || strings.Contains(lower, "exp") {
			continue
		}
		if strings.Contains(lower, "flash") || strings.Contains(lower, "pro") {
			return name
		}
	}

	if len(usable) > 0 {
		return usable[0]
	}

	if len(fallback) > 0 {
		return fallback[0]
	}

	return "gemini-2.0-flash"
}
