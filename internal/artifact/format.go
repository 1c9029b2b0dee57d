// Package artifact renders generated artifacts for display.
package artifact

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"devteam/internal/domain"
)

// Format pretty-prints JSON and YAML content with a two-space indent. Content
// that does not parse is returned unchanged.
func Format(a domain.Artifact) string {
	if a.Content == "" {
		return ""
	}
	switch {
	case a.Type == domain.ArtifactJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(a.Content), "", "  "); err != nil {
			return a.Content
		}
		return buf.String()
	case a.Type == domain.ArtifactYAML, isYAMLName(a.Name):
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(a.Content), &node); err != nil {
			return a.Content
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return a.Content
		}
		if err := enc.Close(); err != nil {
			return a.Content
		}
		return buf.String()
	default:
		return a.Content
	}
}

func isYAMLName(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Language returns the syntax-highlighting language for the artifact.
func Language(a domain.Artifact) string {
	switch a.Type {
	case domain.ArtifactJSON:
		return "json"
	case domain.ArtifactYAML:
		return "yaml"
	case domain.ArtifactMarkdown:
		return "markdown"
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(a.Name), ".")) {
	case "js":
		return "javascript"
	case "ts":
		return "typescript"
	case "tsx":
		return "tsx"
	case "jsx":
		return "jsx"
	case "py":
		return "python"
	case "sh":
		return "bash"
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "md":
		return "markdown"
	case "tf":
		return "hcl"
	case "html", "xml", "svg":
		return "markup"
	default:
		return "none"
	}
}

// PreferredCode picks the artifact to show when a user asks for source code:
// the first code artifact, else the first artifact.
func PreferredCode(artifacts []domain.Artifact) (domain.Artifact, bool) {
	for _, a := range artifacts {
		if a.Type == domain.ArtifactCode || strings.HasSuffix(a.Name, ".py") || strings.HasSuffix(a.Name, ".tsx") {
			return a, true
		}
	}
	if len(artifacts) > 0 {
		return artifacts[0], true
	}
	return domain.Artifact{}, false
}
