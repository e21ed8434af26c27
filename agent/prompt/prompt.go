package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

//go:embed template/*.txt
var templates embed.FS

// Data fills the per-variant templates. Unused fields are ignored.
type Data struct {
	CompanyName   string
	Product       string
	Currency      string
	BankName      string
	StartLocation string
}

var parsed = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(templates, "template/*.txt"))

// Render returns the trimmed instructions for a variant.
func Render(agentType contractx.AgentType, data Data) (string, error) {
	t := parsed.Lookup(string(agentType) + ".txt")
	if t == nil {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", agentType, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// MustRender panics when a template is missing. Use it during wiring only.
func MustRender(agentType contractx.AgentType, data Data) string {
	out, err := Render(agentType, data)
	if err != nil {
		panic(err)
	}
	return out
}
