package preview

import (
	"regexp"
	"sort"
)

// cdnDependencies maps code patterns to the CDN bundle the preview
// runtime must load before executing the component.
var cdnDependencies = []struct {
	pattern *regexp.Regexp
	url     string
}{
	{regexp.MustCompile(`(?i)motion\.`), "https://unpkg.com/framer-motion@11.0.3/dist/framer-motion.umd.js"},
	{regexp.MustCompile(`(?i)lucide`), "https://unpkg.com/lucide-react@0.394.0/dist/lucide-react.umd.js"},
	{regexp.MustCompile(`(?i)recharts`), "https://unpkg.com/recharts@2.12.7/umd/Recharts.min.js"},
	{regexp.MustCompile(`(?i)axios`), "https://unpkg.com/axios@1.7.7/dist/axios.min.js"},
	{regexp.MustCompile(`(?i)marked`), "https://unpkg.com/marked@13.0.2/marked.min.js"},
}

// DefaultDependencies are always loaded by the runtime
var DefaultDependencies = []string{
	"https://unpkg.com/react@18/umd/react.production.min.js",
	"https://unpkg.com/react-dom@18/umd/react-dom.production.min.js",
	"https://unpkg.com/@babel/standalone/babel.min.js",
	"https://cdn.tailwindcss.com",
}

// DetectDependencies scans generated code for optional libraries and
// returns their CDN URLs, sorted for determinism.
func DetectDependencies(code string) []string {
	seen := map[string]bool{}
	for _, dep := range cdnDependencies {
		if dep.pattern.MatchString(code) {
			seen[dep.url] = true
		}
	}
	urls := make([]string, 0, len(seen))
	for url := range seen {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
