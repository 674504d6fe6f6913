package repair

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults returns the stock validator and fixer chains wired at
// startup. Both lists stay pluggable for tests and custom deployments.
func Defaults() ([]Validator, []Fixer) {
	validators := []Validator{
		NonEmptyValidator{},
		FenceFreeValidator{},
		BalancedDelimitersValidator{},
		ModuleSyntaxValidator{},
	}
	fixers := []Fixer{
		FenceStripFixer{},
		ImportStripFixer{},
	}
	return validators, fixers
}

// NonEmptyValidator rejects blank output
type NonEmptyValidator struct{}

func (NonEmptyValidator) Validate(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("generated code is empty")
	}
	return nil
}

// FenceFreeValidator rejects markdown code fences that models wrap
// their output in despite instructions
type FenceFreeValidator struct{}

func (FenceFreeValidator) Validate(code string) error {
	if strings.Contains(code, "```") {
		return fmt.Errorf("generated code contains markdown fences")
	}
	return nil
}

// BalancedDelimitersValidator checks parentheses, braces and brackets
// pair up. Crude but catches the most common truncation failure.
type BalancedDelimitersValidator struct{}

func (BalancedDelimitersValidator) Validate(code string) error {
	pairs := map[rune]rune{')': '(', '}': '{', ']': '['}
	var stack []rune
	for _, r := range code {
		switch r {
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Errorf("unbalanced delimiter %q", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%d unclosed delimiters", len(stack))
	}
	return nil
}

var importPattern = regexp.MustCompile(`(?m)^\s*import\s`)

// ModuleSyntaxValidator rejects import statements: the preview runtime
// provides every dependency as a CDN global.
type ModuleSyntaxValidator struct{}

func (ModuleSyntaxValidator) Validate(code string) error {
	if importPattern.MatchString(code) {
		return fmt.Errorf("generated code uses import statements")
	}
	return nil
}

// FenceStripFixer unwraps a markdown-fenced block, dropping the fence
// lines and any language tag
type FenceStripFixer struct{}

func (FenceStripFixer) Fix(code string, validationErr string) string {
	if !strings.Contains(code, "```") {
		return code
	}
	var out []string
	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// ImportStripFixer removes import lines
type ImportStripFixer struct{}

func (ImportStripFixer) Fix(code string, validationErr string) string {
	if !importPattern.MatchString(code) {
		return code
	}
	var out []string
	for _, line := range strings.Split(code, "\n") {
		if importPattern.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
