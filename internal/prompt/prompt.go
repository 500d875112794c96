// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the literal text sent to the model for a
// (prompt type, question) pair. Rendering is pure: the same inputs always
// produce the same text and the question record is never modified.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pdiddy/reliability-bench/pkg/types"
)

// ErrUnknownPromptType is returned for a prompt type outside the fixed set.
// It is a configuration error and is never retried.
var ErrUnknownPromptType = errors.New("unknown prompt type")

// Footer is the output contract appended to every prompt.
const Footer = "\n\nRespond in EXACTLY this format:\nCONFIDENCE: <0-100>\nANSWER: <your answer here>"

const (
	directText = `Answer the following question.

Question: {{.Question}}`

	stepByStepText = `Solve the following problem step by step. Write out your reasoning before giving the final answer.

Question: {{.Question}}`

	uncertaintyAwareText = `Answer the following question. Report how confident you are that your answer is correct. If you are not confident you can answer correctly, give UNKNOWN as your answer instead of guessing.

Question: {{.Question}}`
)

// templateText returns the built-in template for pt.
func templateText(pt types.PromptType) (string, error) {
	switch pt {
	case types.PromptDirect:
		return directText, nil
	case types.PromptStepByStep:
		return stepByStepText, nil
	case types.PromptUncertaintyAware:
		return uncertaintyAwareText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPromptType, pt)
}

// Renderer holds one parsed template per prompt type.
type Renderer struct {
	templates map[types.PromptType]*template.Template
}

// NewRenderer builds a renderer from the built-in templates. When dir is
// non-empty, a file dir/<prompt_type>.txt replaces the built-in template for
// that type; missing files fall back to the built-in text.
func NewRenderer(dir string) (*Renderer, error) {
	r := &Renderer{templates: make(map[types.PromptType]*template.Template)}
	for _, pt := range types.PromptTypes() {
		text, err := templateText(pt)
		if err != nil {
			return nil, err
		}
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, string(pt)+".txt"))
			switch {
			case err == nil:
				text = string(data)
			case !os.IsNotExist(err):
				return nil, fmt.Errorf("reading prompt template %s: %w", pt, err)
			}
		}
		tmpl, err := template.New(string(pt)).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing prompt template %s: %w", pt, err)
		}
		r.templates[pt] = tmpl
	}
	return r, nil
}

var defaultRenderer = func() *Renderer {
	r, err := NewRenderer("")
	if err != nil {
		panic(err)
	}
	return r
}()

// Render renders q with the built-in template for pt.
func Render(pt types.PromptType, q types.QuestionRecord) (string, error) {
	return defaultRenderer.Render(pt, q)
}

// Render executes the template for pt and appends the output contract.
func (r *Renderer) Render(pt types.PromptType, q types.QuestionRecord) (string, error) {
	tmpl, ok := r.templates[pt]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPromptType, pt)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, q); err != nil {
		return "", fmt.Errorf("rendering %s prompt for %s: %w", pt, q.ID, err)
	}
	buf.WriteString(Footer)
	return buf.String(), nil
}
