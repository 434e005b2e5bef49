package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// File names written by WriteAll.
const (
	MarkdownFile = "sales_report.md"
	YAMLFile     = "sales_summary.yaml"
	XLSXFile     = "sales_report.xlsx"
	CSVDir       = "tables"
)

// WriteAll writes the selected formats under dir and returns the paths written.
func WriteAll(dir string, r *Report, formats []Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string
	for _, format := range formats {
		var paths []string
		var err error

		switch format {
		case FormatMarkdown:
			paths, err = writeFile(filepath.Join(dir, MarkdownFile), func(w io.Writer) error {
				return RenderMarkdown(w, r)
			})
		case FormatYAML:
			paths, err = writeFile(filepath.Join(dir, YAMLFile), func(w io.Writer) error {
				return RenderYAML(w, r)
			})
		case FormatXLSX:
			paths, err = writeFile(filepath.Join(dir, XLSXFile), func(w io.Writer) error {
				return WriteXLSX(w, r)
			})
		case FormatCSV:
			paths, err = writeCSVTables(filepath.Join(dir, CSVDir), r)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, err
		}
		written = append(written, paths...)
	}

	slog.Info("[Report] Wrote report",
		"run_id", r.RunID,
		"dir", dir,
		"files", len(written))
	return written, nil
}

func writeCSVTables(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory: %w", err)
	}

	var paths []string
	for _, t := range r.Tables() {
		p, err := writeFile(filepath.Join(dir, t.Name+".csv"), func(w io.Writer) error {
			return RenderCSV(w, t)
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, p...)
	}
	return paths, nil
}

// writeFile renders into path through a buffered writer.
func writeFile(path string, render func(io.Writer) error) ([]string, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := render(bw); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return []string{path}, nil
}
