package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"resume-preview/internal/config"
	"resume-preview/internal/model"
	"resume-preview/internal/pagination"
	"resume-preview/internal/templates"
	"resume-preview/internal/usecase"
	infra "resume-preview/pkg/infrastructure"
)

func main() {
	var (
		inputFile  string
		templateID string
		measurer   string
		chromePath string
		htmlOut    string
		pdfOut     string
		verbose    bool
	)

	flag.StringVar(&inputFile, "input", "", "Resume JSON file path")
	flag.StringVar(&templateID, "template", templates.Default, "Template id")
	flag.StringVar(&measurer, "measurer", config.MeasurerChrome, "Layout measurer: chrome, or metrics for a browser-free estimate")
	flag.StringVar(&chromePath, "chrome-path", os.Getenv("CHROME_PATH"), "Chrome executable for the chrome measurer")
	flag.StringVar(&htmlOut, "html", "", "Write the paginated HTML document to this path")
	flag.StringVar(&pdfOut, "pdf", "", "Write a PDF to this path")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if inputFile == "" {
		fmt.Println("Error: input file is required")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, inputFile, templateID, measurer, chromePath, htmlOut, pdfOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, inputFile, templateID, measurer, chromePath, htmlOut, pdfOut string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(inputFile)
	if err != nil {
		return err
	}
	r, err := model.Decode(raw)
	if err != nil {
		return err
	}
	tpl, err := templates.Get(templateID)
	if err != nil {
		return err
	}

	var (
		m       pagination.Measurer
		browser *infra.Browser
	)
	switch measurer {
	case config.MeasurerChrome:
		browser, err = infra.NewBrowser(ctx, chromePath)
		if err != nil {
			return err
		}
		defer browser.Close()
		m = infra.NewChromeMeasurer(browser)
	case config.MeasurerMetrics:
		m = infra.NewMetricsMeasurer()
	default:
		return fmt.Errorf("unknown measurer %q", measurer)
	}

	p, err := usecase.NewPreviewService(m, nil, log).Preview(ctx, usecase.PreviewRequest{Resume: r, TemplateID: tpl.ID})
	if err != nil {
		return err
	}

	g := tpl.Geometry
	fmt.Printf("template %s: page %.0fx%.0f, usable height %.0f\n", tpl.ID, g.PageWidth, g.PageHeight, g.UsableHeight)
	for _, page := range p.Pages {
		keys := make([]string, len(page.Blocks))
		for i, b := range page.Blocks {
			if b.Height > 0 {
				keys[i] = fmt.Sprintf("%s(%.0f)", b.Key, b.Height)
			} else {
				keys[i] = b.Key
			}
		}
		fmt.Printf("page %d/%d  %6.0fpx  %s\n", page.Index+1, p.Count(), page.ContentHeight(), strings.Join(keys, " "))
	}

	doc := tpl.Document(r.Meta.Name, p.Pages)
	if htmlOut != "" {
		if err := os.WriteFile(htmlOut, []byte(doc), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", htmlOut)
	}

	if pdfOut != "" {
		var pdf []byte
		if browser != nil {
			pdf, err = infra.NewChromedpRenderer(browser).RenderHTMLToPDF(ctx, doc)
		} else {
			pdf, err = infra.NewFlowExporter().Export(ctx, r, tpl)
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(pdfOut, pdf, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pdfOut)
	}
	return nil
}
