package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/morphic/api/internal/models"
	"github.com/morphic/api/internal/preview"
)

// htmlShell wraps exported component code in a standalone page that
// mirrors the preview runtime: CDN scripts first, then the component
// transpiled in-browser and mounted on #root.
const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>{{.Title}}</title>
{{- range .Dependencies}}
  <script src="{{.}}"></script>
{{- end}}
</head>
<body>
  <div id="root"></div>
  <script type="text/babel" data-type="module" src="./component.jsx"></script>
  <script type="text/babel">
    const mount = document.getElementById("root");
    ReactDOM.createRoot(mount).render(React.createElement(window.__MorphicComponent));
  </script>
</body>
</html>
`

const readmeShell = `# {{.Title}}

Generated component bundle.

## Contents

- component.jsx - the generated React component
- index.html - standalone page that loads the component from CDN bundles
- blueprint.json - the plan the component was generated from

## Running

Serve the directory with any static file server, for example:

    npx serve .

Exported {{.ExportedAt}}.
`

var (
	htmlTemplate   = template.Must(template.New("index").Parse(htmlShell))
	readmeTemplate = template.Must(template.New("readme").Parse(readmeShell))
)

// Bundle describes one exportable generation result
type Bundle struct {
	Result *models.GenerationResult
}

// Filename returns the suggested attachment name for the archive
func (b *Bundle) Filename() string {
	id := "component"
	if b.Result.Blueprint != nil {
		id = b.Result.Blueprint.ID.String()[:8]
	}
	return fmt.Sprintf("morphic-%s.zip", id)
}

// Write streams the bundle as a zip archive. The archive is buildable
// offline: the HTML shell pins the same CDN bundles the preview used.
func (b *Bundle) Write(w io.Writer) error {
	if b.Result == nil || b.Result.Artifact == nil {
		return fmt.Errorf("export: result has no artifact")
	}

	zw := zip.NewWriter(w)

	code := exportableCode(b.Result.Artifact.Code)
	if err := writeEntry(zw, "component.jsx", []byte(code)); err != nil {
		return err
	}

	title := "Generated Component"
	if b.Result.Blueprint != nil && b.Result.Blueprint.Summary != "" {
		title = b.Result.Blueprint.Summary
	}

	deps := append([]string{}, preview.DefaultDependencies...)
	deps = append(deps, preview.DetectDependencies(b.Result.Artifact.Code)...)

	var html strings.Builder
	if err := htmlTemplate.Execute(&html, struct {
		Title        string
		Dependencies []string
	}{title, deps}); err != nil {
		return fmt.Errorf("export: render html: %w", err)
	}
	if err := writeEntry(zw, "index.html", []byte(html.String())); err != nil {
		return err
	}

	var readme strings.Builder
	if err := readmeTemplate.Execute(&readme, struct {
		Title      string
		ExportedAt string
	}{title, time.Now().UTC().Format(time.RFC3339)}); err != nil {
		return fmt.Errorf("export: render readme: %w", err)
	}
	if err := writeEntry(zw, "README.md", []byte(readme.String())); err != nil {
		return err
	}

	manifest, err := json.MarshalIndent(preview.Manifest{
		Payload: &models.PreviewPayload{
			Code:       code,
			CreatedAt:  time.Now().UTC(),
			TemplateID: templateID(b.Result),
		},
		Dependencies: deps,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal manifest: %w", err)
	}
	if err := writeEntry(zw, "manifest.json", manifest); err != nil {
		return err
	}

	if b.Result.Blueprint != nil {
		plan, err := json.MarshalIndent(b.Result.Blueprint, "", "  ")
		if err != nil {
			return fmt.Errorf("export: marshal blueprint: %w", err)
		}
		if err := writeEntry(zw, "blueprint.json", plan); err != nil {
			return err
		}
	}

	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("export: write %s: %w", name, err)
	}
	return nil
}

func templateID(result *models.GenerationResult) string {
	if result.Template == nil {
		return ""
	}
	return result.Template.TemplateID
}

// exportableCode rewrites the module-style export into a window global
// the HTML shell can mount without a bundler.
func exportableCode(code string) string {
	rewritten := strings.ReplaceAll(code, "exports.default =", "window.__MorphicComponent =")
	rewritten = strings.ReplaceAll(rewritten, "export default", "window.__MorphicComponent =")
	return rewritten
}
