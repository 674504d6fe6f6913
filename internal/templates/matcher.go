package templates

import (
	"fmt"
	"strings"

	"github.com/morphic/api/internal/models"
)

const (
	baseScore    = 0.1
	tagBonus     = 0.2
	keywordBonus = 0.25

	// Confidence deliberately never reaches 1.0; full certainty is
	// reserved and never produced by scoring.
	confidenceCap = 0.99
)

// Match scores the catalog against a plan and returns the best template.
// Fully deterministic and table-driven: same plan and tone always yield
// the same selection.
func Match(plan *models.BlueprintPlan, tone string) models.TemplateSelection {
	blob := tokenBlob(plan)

	best := Catalog[0]
	bestScore := score(Catalog[0], blob)
	for _, tpl := range Catalog[1:] {
		if s := score(tpl, blob); s > bestScore {
			best = tpl
			bestScore = s
		}
	}

	confidence := bestScore
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	return models.TemplateSelection{
		TemplateID: best.ID,
		Confidence: confidence,
		Rationale:  rationale(best, plan, tone),
	}
}

func tokenBlob(plan *models.BlueprintPlan) string {
	parts := make([]string, 0, len(plan.Components)+len(plan.DataFlows)+len(plan.AIFeatures)+1)
	parts = append(parts, plan.Components...)
	parts = append(parts, plan.DataFlows...)
	parts = append(parts, plan.AIFeatures...)
	parts = append(parts, plan.Summary)
	return strings.ToLower(strings.Join(parts, " "))
}

func score(tpl Template, blob string) float64 {
	s := baseScore
	for _, tag := range tpl.Tags {
		if strings.Contains(blob, tag) {
			s += tagBonus
		}
	}
	for concept, synonyms := range keywordGroups {
		if !anyContained(blob, synonyms) {
			continue
		}
		if hasTag(tpl, concept) || hasTag(tpl, tagAlias(concept)) {
			s += keywordBonus
		}
	}
	return s
}

func anyContained(blob string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(blob, sub) {
			return true
		}
	}
	return false
}

func hasTag(tpl Template, tag string) bool {
	for _, t := range tpl.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func rationale(tpl Template, plan *models.BlueprintPlan, tone string) string {
	anchor := "core experience"
	if len(plan.Components) > 0 {
		anchor = plan.Components[0]
	}
	r := fmt.Sprintf("%s selected for %s. Anchored around %s.", tpl.ID, tpl.Description, anchor)
	if tone != "" {
		r += fmt.Sprintf(" Tone preference: %s.", tone)
	}
	return r
}
