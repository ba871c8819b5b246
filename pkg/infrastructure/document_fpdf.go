package infrastructure

import (
	"bytes"
	"context"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"resume-preview/internal/model"
	"resume-preview/internal/templates"
)

// FlowExporter writes a resume straight to PDF with fpdf, letting the
// document break pages wherever text runs out of room.
type FlowExporter struct{}

func NewFlowExporter() *FlowExporter { return &FlowExporter{} }

type rgb struct{ r, g, b int }

type palette struct {
	text, accent, muted, background rgb
}

var palettes = map[string]palette{
	"classic": {text: rgb{34, 34, 34}, accent: rgb{34, 34, 34}, muted: rgb{85, 85, 85}},
	"modern":  {text: rgb{34, 34, 34}, accent: rgb{31, 78, 121}, muted: rgb{85, 85, 85}},
	"dark":    {text: rgb{232, 232, 236}, accent: rgb{158, 203, 255}, muted: rgb{160, 160, 176}, background: rgb{30, 30, 36}},
}

func (e *FlowExporter) Export(ctx context.Context, r *model.Resume, t *templates.Template) ([]byte, error) {
	g := t.Geometry
	marginV := (g.PageHeight - g.UsableHeight) / 2 * pxToPt
	marginH := horizontalPadding(g.PageStyle) / 2 * pxToPt
	if marginH == 0 {
		marginH = marginV
	}
	pal, ok := palettes[t.ID]
	if !ok {
		pal = palettes[templates.Default]
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginH, marginV, marginH)
	pdf.SetAutoPageBreak(true, marginV)
	pdf.SetTitle(r.Meta.Name, true)
	pdf.SetCreator("resume-preview", true)
	if pal.background != (rgb{}) {
		pdf.SetHeaderFunc(func() {
			w, h := pdf.GetPageSize()
			pdf.SetFillColor(pal.background.r, pal.background.g, pal.background.b)
			pdf.Rect(0, 0, w, h, "F")
		})
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w := &flowWriter{pdf: pdf, tr: tr, pal: pal}

	pdf.AddPage()
	w.header(r)
	labels := templates.Labels(r)
	for _, s := range r.SectionOrder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w.section(r, s, labels[s])
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type flowWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	pal palette
}

func (w *flowWriter) color(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }

func (w *flowWriter) para(text string, size float64, style string, c rgb) {
	if strings.TrimSpace(text) == "" {
		return
	}
	w.color(c)
	w.pdf.SetFont("Helvetica", style, size)
	w.pdf.MultiCell(0, size*lineHeight, w.tr(text), "", "L", false)
}

func (w *flowWriter) header(r *model.Resume) {
	w.para(r.Meta.Name, 21, "B", w.pal.accent)
	w.para(r.Meta.Headline, 11, "", w.pal.text)
	c := r.Meta.Contact
	var parts []string
	for _, v := range []string{c.Email, c.Phone, c.Location, c.Website, c.LinkedIn, c.GitHub} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	w.para(strings.Join(parts, "  |  "), 9, "", w.pal.muted)
	w.pdf.Ln(6)
}

func (w *flowWriter) heading(label string) {
	w.pdf.Ln(8)
	w.para(strings.ToUpper(label), 11, "B", w.pal.accent)
	x, y := w.pdf.GetXY()
	left, _, right, _ := w.pdf.GetMargins()
	pw, _ := w.pdf.GetPageSize()
	w.pdf.SetDrawColor(w.pal.accent.r, w.pal.accent.g, w.pal.accent.b)
	w.pdf.Line(left, y, pw-right, y)
	w.pdf.SetXY(x, y+4)
}

func (w *flowWriter) bullets(items []string) {
	for _, b := range items {
		w.para("- "+b, 9.75, "", w.pal.text)
	}
}

func (w *flowWriter) section(r *model.Resume, id, label string) {
	switch id {
	case model.SectionSummary:
		if r.Summary == "" {
			return
		}
		w.heading(label)
		w.para(r.Summary, 9.75, "", w.pal.text)
	case model.SectionExperience:
		if len(r.Experience) == 0 {
			return
		}
		w.heading(label)
		for _, role := range r.Experience {
			w.para(role.Title+" - "+role.Company, 10.5, "B", w.pal.text)
			w.para(strings.TrimSpace(role.Period+"  "+role.Location), 9, "", w.pal.muted)
			w.bullets(role.Bullets)
			w.pdf.Ln(4)
		}
	case model.SectionProjects:
		if len(r.Projects) == 0 {
			return
		}
		w.heading(label)
		for _, p := range r.Projects {
			w.para(p.Title, 10.5, "B", w.pal.text)
			w.para(p.Stack, 9, "", w.pal.muted)
			w.para(p.Description, 9.75, "", w.pal.text)
			w.bullets(p.Bullets)
			w.pdf.Ln(4)
		}
	case model.SectionSkills:
		if len(r.Skills) == 0 {
			return
		}
		w.heading(label)
		for _, sg := range r.Skills {
			w.para(sg.Name+": "+strings.Join(sg.Items, ", "), 9.75, "", w.pal.text)
		}
	case model.SectionEducation:
		if len(r.Education) == 0 {
			return
		}
		w.heading(label)
		for _, e := range r.Education {
			w.para(e.School, 10.5, "B", w.pal.text)
			w.para(strings.TrimSpace(e.Degree+"  "+e.Period), 9, "", w.pal.muted)
		}
	case model.SectionCertifications:
		if len(r.Certifications) == 0 {
			return
		}
		w.heading(label)
		for _, c := range r.Certifications {
			line := c.Name
			if c.Issuer != "" {
				line += " - " + c.Issuer
			}
			if c.Date != "" {
				line += " (" + c.Date + ")"
			}
			w.para(line, 9.75, "", w.pal.text)
		}
	case model.SectionPublications:
		if len(r.Publications) == 0 {
			return
		}
		w.heading(label)
		w.bullets(r.Publications)
	case model.SectionExtras:
		if len(r.Extras) == 0 {
			return
		}
		w.heading(label)
		w.bullets(r.Extras)
	}
}
