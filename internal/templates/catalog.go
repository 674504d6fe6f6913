package templates

// Template is a predefined UI archetype in the fixed catalog
type Template struct {
	ID          string   `json:"id"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Catalog order matters: score ties resolve to the earliest entry.
var Catalog = []Template{
	{ID: "dashboard-aurora", Tags: []string{"dashboard", "analytics", "cards"}, Description: "Multi-panel analytics dashboard"},
	{ID: "ai-workflow", Tags: []string{"assistant", "workflow", "chat"}, Description: "Guided AI workflow with chat elements"},
	{ID: "data-table-insight", Tags: []string{"table", "filters", "search"}, Description: "Data table with filters and insights banner"},
	{ID: "creative-gallery", Tags: []string{"gallery", "cards", "media"}, Description: "Media-forward creative gallery"},
}

// keywordGroups map a concept to synonym substrings. A synonym hit
// counts for templates tagged with the concept (or its tag alias).
var keywordGroups = map[string][]string{
	"analytics":      {"dashboard", "charts", "metrics", "kpi"},
	"sustainability": {"carbon", "climate", "energy"},
	"assistant":      {"agent", "assistant", "workflow"},
	"table":          {"table", "rows", "dataset"},
	"gallery":        {"gallery", "media", "creative"},
}

// tagAlias resolves a keyword-group concept to the catalog tag it
// corresponds to when they differ.
func tagAlias(concept string) string {
	switch concept {
	case "analytics":
		return "dashboard"
	case "assistant":
		return "workflow"
	default:
		return concept
	}
}
