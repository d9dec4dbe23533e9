package blocks

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Prompt is the message pair sent to the inference endpoint.
type Prompt struct {
	System string
	User   string
}

const definitionSystemPrompt = "You are an expert at creating visual programming blocks. " +
	"Analyze user requests and create complete block definitions in JSON format."

// BuildDefinitionPrompt returns the prompt asking the model for a complete
// block definition. kind and hasInput are preferences; an empty kind leaves
// the choice to the model. The result depends only on its arguments.
func BuildDefinitionPrompt(description string, kind Kind, hasInput bool) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this block request and create a complete block definition: %q\n\n", strings.TrimSpace(description))
	b.WriteString("You need to determine:\n")
	b.WriteString("1. Block name (short, descriptive)\n")
	b.WriteString("2. Block type (" + kindList() + ")\n")
	b.WriteString("3. Whether it needs an input field (true/false)\n")
	b.WriteString("4. Block color in hex format\n")
	b.WriteString("5. Working JavaScript code that implements the functionality\n\n")

	b.WriteString("Block types:\n")
	for _, k := range Kinds {
		fmt.Fprintf(&b, "- %s: %s\n", k, k.Semantics())
	}
	b.WriteString("\nSuggested colors:\n")
	for _, a := range Palette {
		fmt.Fprintf(&b, "- %s: %s\n", a.Category, a.Color)
	}

	b.WriteString("\nIf the block needs user input, use " + Placeholder + " as placeholder in the code.\n")
	if kind.Valid() {
		fmt.Fprintf(&b, "The user prefers a %s block.\n", kind)
	}
	if hasInput {
		b.WriteString("The block must accept exactly one input value.\n")
	}

	b.WriteString("\nRespond ONLY with valid JSON in this exact format:\n")
	b.WriteString("{\n")
	b.WriteString(`  "name": "block name here",` + "\n")
	b.WriteString(`  "description": "what this block does",` + "\n")
	b.WriteString(`  "type": "statement",` + "\n")
	b.WriteString(`  "color": "` + DefaultColor + `",` + "\n")
	b.WriteString(`  "hasInput": false,` + "\n")
	b.WriteString(`  "code": "console.log('example');"` + "\n")
	b.WriteString("}")

	return Prompt{System: definitionSystemPrompt, User: b.String()}
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, "/")
}

//go:embed prompts.yaml
var categoryCatalogYAML []byte

// Category is a workspace block category with its code-generation persona.
type Category struct {
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder"`
	System      string `yaml:"system"`
}

type categoryCatalog struct {
	Default    string     `yaml:"default"`
	Rules      []string   `yaml:"rules"`
	Categories []Category `yaml:"categories"`
}

var (
	catalogOnce sync.Once
	catalog     categoryCatalog
	catalogErr  error
)

func loadCatalog() (categoryCatalog, error) {
	catalogOnce.Do(func() {
		catalogErr = yaml.Unmarshal(categoryCatalogYAML, &catalog)
		if catalogErr == nil && len(catalog.Categories) == 0 {
			catalogErr = fmt.Errorf("blocks: empty category catalog")
		}
	})
	return catalog, catalogErr
}

// Categories returns the workspace categories in catalog order.
func Categories() []Category {
	c, err := loadCatalog()
	if err != nil {
		return nil
	}
	return append([]Category(nil), c.Categories...)
}

// LookupCategory returns the category named name, or the default category
// when name is unknown. ok is false only when the name was unknown.
func LookupCategory(name string) (Category, bool) {
	c, err := loadCatalog()
	if err != nil {
		return Category{Name: name}, false
	}
	name = strings.TrimSpace(name)
	var fallback Category
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
		if cat.Name == c.Default {
			fallback = cat
		}
	}
	return fallback, false
}

// BuildCodePrompt returns the prompt for the code-only variant: the category
// persona as system prompt and the request with the output rules.
func BuildCodePrompt(category, description string) Prompt {
	cat, _ := LookupCategory(category)
	c, _ := loadCatalog()

	var b strings.Builder
	b.WriteString("Generate JavaScript code for the following request:\n\n")
	b.WriteString("Request: " + strings.TrimSpace(description) + "\n\n")
	b.WriteString("Important rules:\n")
	for i, rule := range c.Rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}
	b.WriteString("\nWrite only the code:")
	return Prompt{System: strings.TrimSpace(cat.System), User: b.String()}
}
