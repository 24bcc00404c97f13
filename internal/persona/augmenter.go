package persona

import (
	"sort"
	"strings"

	"promptsmith/internal/logging"
	"promptsmith/internal/prompt"
)

// DefaultMaxSelectedElements caps how many matched elements may join
// one prompt, bounding prompt growth.
const DefaultMaxSelectedElements = 10

// Select runs the criteria evaluator over every element, keeps the
// matches sorted descending by priority, and caps the result at max
// (<=0 means DefaultMaxSelectedElements).
func Select(elements []Element, ec ExecutionContext, max int) []Element {
	if max <= 0 {
		max = DefaultMaxSelectedElements
	}

	var matched []Element
	for _, el := range elements {
		if Evaluate(el.Criteria, ec) {
			matched = append(matched, el)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})

	if len(matched) > max {
		logging.Get(logging.CategoryCriteria).Debug(
			"Element selection capped: %d matched, keeping %d", len(matched), max,
		)
		matched = matched[:max]
	}

	return matched
}

// Augment merges selected elements into a deep clone of base. The
// caller's components are never touched.
//
// Routing by element type:
//   - system-instruction-like types append to SystemPrompts (with the
//     element ID as source) and the full list is re-sorted ascending
//     by priority: priority 0 renders first.
//   - few-shot examples append to Examples.
//   - user-input augmentations join onto UserInput, newline-separated.
//   - everything else lands in Extensions under its normalized type.
func Augment(base *prompt.Components, selected []Element) *prompt.Components {
	out := base.Clone()
	if out == nil {
		out = &prompt.Components{}
	}

	for _, el := range selected {
		switch el.Type {
		case ElementSystemAddon, ElementBehavioralGuidance:
			out.SystemPrompts = append(out.SystemPrompts, prompt.SystemPrompt{
				Content:  el.Content,
				Priority: el.Priority,
				Source:   el.ID,
			})

		case ElementFewShotExample:
			ex := prompt.Example{
				Input:  el.ExampleInput,
				Output: el.ExampleOutput,
				Source: el.ID,
			}
			if ex.Input == "" {
				ex.Input = el.Content
			}
			out.Examples = append(out.Examples, ex)

		case ElementUserInputAugmentation:
			if out.UserInput == "" {
				out.UserInput = el.Content
			} else {
				out.UserInput = out.UserInput + "\n" + el.Content
			}

		default:
			key := normalizeTypeKey(string(el.Type))
			if out.Extensions == nil {
				out.Extensions = make(map[string][]string)
			}
			out.Extensions[key] = append(out.Extensions[key], el.Content)
		}
	}

	// Callers rely on "priority 0 first" in the final system output.
	sort.SliceStable(out.SystemPrompts, func(i, j int) bool {
		return out.SystemPrompts[i].Priority < out.SystemPrompts[j].Priority
	})

	return out
}

// normalizeTypeKey lowercases a type name and strips underscores so
// template lookups are insensitive to authoring style.
func normalizeTypeKey(t string) string {
	return strings.ReplaceAll(strings.ToLower(t), "_", "")
}
