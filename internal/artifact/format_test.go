package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam/internal/domain"
)

func TestFormatJSON(t *testing.T) {
	a := domain.Artifact{Name: "x.json", Type: domain.ArtifactJSON, Content: `{"a":1,"b":[true]}`}
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    true\n  ]\n}", Format(a))
}

func TestFormatInvalidJSONUnchanged(t *testing.T) {
	a := domain.Artifact{Type: domain.ArtifactJSON, Content: `{not json`}
	assert.Equal(t, `{not json`, Format(a))
}

func TestFormatYAML(t *testing.T) {
	a := domain.Artifact{Name: "deploy.yaml", Type: domain.ArtifactYAML, Content: "spec:\n    replicas: 3\n"}
	assert.Equal(t, "spec:\n  replicas: 3\n", Format(a))
}

func TestFormatYAMLByName(t *testing.T) {
	a := domain.Artifact{Name: "ci.yml", Type: domain.ArtifactCode, Content: "jobs:\n      test: go\n"}
	assert.Equal(t, "jobs:\n  test: go\n", Format(a))
}

func TestFormatInvalidYAMLUnchanged(t *testing.T) {
	a := domain.Artifact{Type: domain.ArtifactYAML, Content: "a: [unclosed"}
	assert.Equal(t, "a: [unclosed", Format(a))
}

func TestFormatPlain(t *testing.T) {
	a := domain.Artifact{Type: domain.ArtifactMarkdown, Content: "# Title"}
	assert.Equal(t, "# Title", Format(a))
	assert.Empty(t, Format(domain.Artifact{Type: domain.ArtifactJSON}))
}

func TestLanguage(t *testing.T) {
	cases := map[string]domain.Artifact{
		"json":       {Name: "PRD.json", Type: domain.ArtifactJSON},
		"yaml":       {Name: "prompts.yaml", Type: domain.ArtifactYAML},
		"markdown":   {Name: "README.md", Type: domain.ArtifactMarkdown},
		"python":     {Name: "backend/app/main.py", Type: domain.ArtifactCode},
		"tsx":        {Name: "frontend/src/App.tsx", Type: domain.ArtifactCode},
		"bash":       {Name: "scripts/dev.sh", Type: domain.ArtifactCode},
		"hcl":        {Name: "infrastructure/terraform/main.tf", Type: domain.ArtifactCode},
		"markup":     {Name: "index.HTML", Type: domain.ArtifactCode},
		"javascript": {Name: "a.js", Type: domain.ArtifactCode},
		"none":       {Name: "design/theme.css", Type: domain.ArtifactCode},
	}
	for want, a := range cases {
		assert.Equal(t, want, Language(a), a.Name)
	}
}

func TestPreferredCode(t *testing.T) {
	arts := []domain.Artifact{
		{ID: "1", Name: "PRD.json", Type: domain.ArtifactJSON},
		{ID: "2", Name: "backend/app/main.py", Type: domain.ArtifactCode},
	}
	a, ok := PreferredCode(arts)
	require.True(t, ok)
	assert.Equal(t, "2", a.ID)

	a, ok = PreferredCode(arts[:1])
	require.True(t, ok)
	assert.Equal(t, "1", a.ID)

	_, ok = PreferredCode(nil)
	assert.False(t, ok)
}
