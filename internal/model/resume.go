package model

// Go models for resume.schema.json, used for validation and template rendering.

type Contact struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type Meta struct {
	Name     string  `json:"name"`
	Headline string  `json:"headline"`
	Contact  Contact `json:"contact,omitempty"`
}

type Role struct {
	Company  string   `json:"company"`
	Title    string   `json:"title"`
	Period   string   `json:"period,omitempty"`
	Location string   `json:"location,omitempty"`
	Bullets  []string `json:"bullets,omitempty"`
}

type Project struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	URL         string   `json:"url,omitempty"`
	Stack       string   `json:"stack,omitempty"`
	Description string   `json:"description"`
	Bullets     []string `json:"bullets,omitempty"`
}

type Education struct {
	School string `json:"school"`
	Degree string `json:"degree,omitempty"`
	Period string `json:"period,omitempty"`
}

type SkillGroup struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

type Resume struct {
	Meta           Meta              `json:"meta"`
	Summary        string            `json:"summary,omitempty"`
	Experience     []Role            `json:"experience,omitempty"`
	Projects       []Project         `json:"projects,omitempty"`
	Education      []Education       `json:"education,omitempty"`
	Skills         []SkillGroup      `json:"skills,omitempty"`
	Publications   []string          `json:"publications,omitempty"`
	Certifications []Certification   `json:"certifications,omitempty"`
	Extras         []string          `json:"extras,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
	// Sections lists section ids in display order; hidden sections are omitted.
	Sections []string `json:"sections,omitempty"`
}

// Section ids understood by the templates.
const (
	SectionSummary        = "summary"
	SectionExperience     = "experience"
	SectionProjects       = "projects"
	SectionEducation      = "education"
	SectionSkills         = "skills"
	SectionPublications   = "publications"
	SectionCertifications = "certifications"
	SectionExtras         = "extras"
)

// DefaultSections is the section order used when a resume does not set one.
var DefaultSections = []string{
	SectionSummary,
	SectionExperience,
	SectionProjects,
	SectionSkills,
	SectionEducation,
	SectionCertifications,
	SectionPublications,
	SectionExtras,
}

// SectionOrder returns the resume's known sections in display order.
func (r *Resume) SectionOrder() []string {
	if len(r.Sections) == 0 {
		return DefaultSections
	}
	known := map[string]bool{}
	for _, s := range DefaultSections {
		known[s] = true
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		if known[s] && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
