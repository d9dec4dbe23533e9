package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefinitionPrompt_EmbedsContract(t *testing.T) {
	p := BuildDefinitionPrompt("show a greeting", KindValue, true)

	assert.NotEmpty(t, p.System)
	for _, k := range Kinds {
		assert.Contains(t, p.User, "- "+string(k)+": "+k.Semantics())
	}
	for _, a := range Palette {
		assert.Contains(t, p.User, a.Color)
	}
	assert.Contains(t, p.User, Placeholder)
	assert.Contains(t, p.User, `"show a greeting"`)
	assert.Contains(t, p.User, "prefers a value block")
	assert.Contains(t, p.User, "exactly one input value")
	for _, field := range []string{`"name"`, `"description"`, `"type"`, `"color"`, `"hasInput"`, `"code"`} {
		assert.Contains(t, p.User, field)
	}
}

func TestBuildDefinitionPrompt_Deterministic(t *testing.T) {
	a := BuildDefinitionPrompt("x", "", false)
	b := BuildDefinitionPrompt("x", "", false)
	assert.Equal(t, a, b)
	assert.NotContains(t, a.User, "prefers")
	assert.NotContains(t, a.User, "exactly one input")
}

func TestCategories_LoadFromCatalog(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 7)
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
		assert.NotEmpty(t, c.System, c.Name)
		assert.NotEmpty(t, c.Label, c.Name)
	}
	assert.Equal(t, []string{"action", "condition", "loop", "function", "event", "ui", "data"}, names)
}

func TestBuildCodePrompt_UnknownCategoryUsesAction(t *testing.T) {
	action, ok := LookupCategory("action")
	require.True(t, ok)
	_, ok = LookupCategory("teleport")
	assert.False(t, ok)

	p := BuildCodePrompt("teleport", "make it rain")
	assert.Equal(t, action.System[:20], p.System[:20])
	assert.Contains(t, p.User, "Request: make it rain")
	assert.Contains(t, p.User, "1. Write only executable JavaScript code")
}
