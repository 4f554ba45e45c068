package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

func TestTypeScriptExtractorCanHandle(t *testing.T) {
	e := NewTypeScriptExtractor()
	assert.True(t, e.CanHandle("src/widget.ts"))
	assert.True(t, e.CanHandle("src/widget.tsx"))
	assert.True(t, e.CanHandle("src/widget.js"))
	assert.False(t, e.CanHandle("src/widget.test.ts"))
	assert.False(t, e.CanHandle("src/widget.py"))
}

const tsFixture = `
/** Adds two numbers. */
function add(a: number, b: number): number {
  return helper(a, b);
}

function helper(a: number, b: number): number {
  return a + b;
}

/** useCounter tracks a count. */
const useCounter = (initial: number) => {
  return initial;
};

const config = {
  retries: 3,
};

/** Widget represents a UI widget. */
class Widget {
  /** Renders the widget. */
  render(): string {
    return this.label();
  }

  label(): string {
    return "widget";
  }
}

/** Props for Widget. */
interface WidgetProps {
  name: string;
}
`

func TestTypeScriptExtractorFunctions(t *testing.T) {
	e := NewTypeScriptExtractor()
	docs, err := e.Extract("widget.ts", []byte(tsFixture))
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	byName := map[string]domain.Document{}
	for _, d := range docs {
		byName[d.Metadata.Name] = d
	}

	add, ok := byName["add"]
	require.True(t, ok)
	assert.Equal(t, domain.DocTypeFunction, add.Type)
	assert.Equal(t, "Adds two numbers.", add.Metadata.Docstring)
	require.Len(t, add.Metadata.Callees, 1)
	assert.Equal(t, "helper", add.Metadata.Callees[0].Name)
}

func TestTypeScriptExtractorArrowConstant(t *testing.T) {
	e := NewTypeScriptExtractor()
	docs, err := e.Extract("widget.ts", []byte(tsFixture))
	require.NoError(t, err)

	var useCounter domain.Document
	for _, d := range docs {
		if d.Metadata.Name == "useCounter" {
			useCounter = d
		}
	}
	require.NotEmpty(t, useCounter.ID)
	assert.Equal(t, domain.DocTypeVariable, useCounter.Type)
	isArrow, _ := useCounter.Metadata.Get("isArrowFunction")
	assert.Equal(t, true, isArrow)
	isHook, _ := useCounter.Metadata.Get("isHook")
	assert.Equal(t, true, isHook)
}

func TestTypeScriptExtractorObjectConstant(t *testing.T) {
	e := NewTypeScriptExtractor()
	docs, err := e.Extract("widget.ts", []byte(tsFixture))
	require.NoError(t, err)

	var config domain.Document
	for _, d := range docs {
		if d.Metadata.Name == "config" {
			config = d
		}
	}
	require.NotEmpty(t, config.ID)
	kind, _ := config.Metadata.Get("constantKind")
	assert.Equal(t, "object", kind)
}

func TestTypeScriptExtractorClassAndMethods(t *testing.T) {
	e := NewTypeScriptExtractor()
	docs, err := e.Extract("widget.ts", []byte(tsFixture))
	require.NoError(t, err)

	var widget, render domain.Document
	for _, d := range docs {
		if d.Type == domain.DocTypeClass && d.Metadata.Name == "Widget" {
			widget = d
		}
		if d.Type == domain.DocTypeMethod && d.Metadata.Name == "render" {
			render = d
		}
	}
	require.NotEmpty(t, widget.ID)
	require.NotEmpty(t, render.ID)
	assert.Contains(t, render.ID, "Widget.render")
	class, _ := render.Metadata.Get("class")
	assert.Equal(t, "Widget", class)
}

func TestTypeScriptExtractorInterface(t *testing.T) {
	e := NewTypeScriptExtractor()
	docs, err := e.Extract("widget.ts", []byte(tsFixture))
	require.NoError(t, err)

	var found bool
	for _, d := range docs {
		if d.Metadata.Name == "WidgetProps" {
			found = true
			assert.Equal(t, domain.DocTypeInterface, d.Type)
		}
	}
	assert.True(t, found)
}

func TestTypeScriptExtractorSkipsGeneratedFiles(t *testing.T) {
	e := NewTypeScriptExtractor()
	content := "// Code generated by openapi-generator. DO NOT EDIT.\nfunction foo() {}\n"
	docs, err := e.Extract("widget.ts", []byte(content))
	require.NoError(t, err)
	assert.Empty(t, docs)
}
