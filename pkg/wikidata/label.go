package wikidata

// LabelResult classifies the outcome of label resolution so the ambiguous
// case is never silently coerced to an empty string.
type LabelResult int

const (
	// LabelFound means a usable display label was resolved.
	LabelFound LabelResult = iota
	// LabelAmbiguous means labels exist but disagree and none is English.
	LabelAmbiguous
	// LabelMissing means the entity has no labels at all.
	LabelMissing
)

// EntityLabel resolves a display label for an entity:
// the English label if present; otherwise, if every available language
// carries the same text, that shared text; otherwise no usable label.
func EntityLabel(e *Entity) (string, LabelResult) {
	if e == nil || len(e.Labels) == 0 {
		return "", LabelMissing
	}

	if en, ok := e.Labels["en"]; ok {
		return en.Value, LabelFound
	}

	values := make(map[string]struct{})
	var first string
	for _, term := range e.Labels {
		if len(values) == 0 {
			first = term.Value
		}
		values[term.Value] = struct{}{}
	}
	if len(values) == 1 {
		return first, LabelFound
	}

	return "", LabelAmbiguous
}
