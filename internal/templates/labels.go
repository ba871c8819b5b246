package templates

import "resume-preview/internal/model"

// DefaultLabels returns the English section headings.
func DefaultLabels() map[string]string {
	return map[string]string{
		"summary":        "Professional Summary",
		"experience":     "Experience",
		"projects":       "Projects",
		"skills":         "Skills",
		"education":      "Education",
		"certifications": "Certifications",
		"publications":   "Publications",
		"extras":         "Extras",
	}
}

// mergeLabels overlays non-empty resume labels on the defaults.
func mergeLabels(overrides map[string]string) map[string]string {
	labels := DefaultLabels()
	for k, v := range overrides {
		if v != "" {
			labels[k] = v
		}
	}
	return labels
}

// Labels returns the section headings for r.
func Labels(r *model.Resume) map[string]string {
	return mergeLabels(r.Labels)
}
