package export

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

// Artifact kinds.
const (
	KindTopicTable    = "topic_table"
	KindDocumentTable = "document_table"
	KindVisualization = "visualization"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	pages = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

	safeName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// FileWriter exports model tables as CSV and a visualization page per model
// family into one directory.
type FileWriter struct {
	dir    string
	logger *slog.Logger
	embed  func([][]float64) [][]float64
}

var _ ports.ArtifactWriter = (*FileWriter)(nil)

// NewFileWriter writes artifacts under dir.
func NewFileWriter(dir string, log *slog.Logger) *FileWriter {
	return &FileWriter{
		dir:    dir,
		logger: log,
		embed:  tsneEmbed,
	}
}

// WriteModel writes the topic table, document table and visualization of one
// fitted model and returns references to them.
func (w *FileWriter) WriteModel(ctx context.Context, jobID string, model ports.ModelArtifacts) ([]domain.Artifact, error) {
	if !safeName.MatchString(jobID) {
		return nil, fmt.Errorf("invalid job id %q", jobID)
	}
	family := model.Result.Model.Family
	if family != domain.FamilyFactorization && family != domain.FamilyAllocation {
		return nil, fmt.Errorf("unknown model family %q", family)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	k := len(model.Result.Model.Topics)
	steps := []struct {
		kind  string
		name  string
		write func(io.Writer) error
	}{
		{KindTopicTable, fmt.Sprintf("%s_%s_topics.csv", jobID, family), func(out io.Writer) error {
			return writeTopicTable(out, model.Result.Model.Topics)
		}},
		{KindDocumentTable, fmt.Sprintf("%s_%s_documents.csv", jobID, family), func(out io.Writer) error {
			return writeDocumentTable(out, model.Result.Documents, k)
		}},
		{KindVisualization, fmt.Sprintf("%s_%s.html", jobID, family), func(out io.Writer) error {
			return w.renderPage(out, jobID, model)
		}},
	}

	artifacts := make([]domain.Artifact, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(w.dir, step.name)
		if err := writeFile(path, step.write); err != nil {
			return nil, fmt.Errorf("write %s: %w", step.name, err)
		}
		w.debug("artifact written", "path", path)
		artifacts = append(artifacts, domain.Artifact{Kind: step.kind, Name: step.name, Path: path})
	}

	return artifacts, nil
}

// Path resolves an artifact name inside the directory. Names with path
// separators or leading dots are rejected.
func (w *FileWriter) Path(name string) (string, error) {
	if !safeName.MatchString(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(w.dir, name), nil
}

func (w *FileWriter) renderPage(out io.Writer, jobID string, model ports.ModelArtifacts) error {
	switch model.Result.Model.Family {
	case domain.FamilyFactorization:
		return pages.ExecuteTemplate(out, "factorization.html.tmpl", buildFactorizationView(jobID, model.Result, w.embed))
	default:
		return pages.ExecuteTemplate(out, "allocation.html.tmpl", buildAllocationView(jobID, model.Result, model.Topics))
	}
}

// writeFile renders into memory first so a failed render leaves no partial file.
func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (w *FileWriter) debug(msg string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}
