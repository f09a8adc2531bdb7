package ruletree

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// AnnotationKey is the schema keyword carrying rule metadata.
const AnnotationKey = "x-rdap"

// Annotation is the typed form of an x-rdap object.
type Annotation struct {
	// Rule names the sub-validation this node implements.
	Rule string
	// Codes maps a code key (type, enum, required, ...) to its numeric code.
	Codes map[string]int
	// Dataset names the reference dataset backing the node's values.
	Dataset string
	// Unique names the discriminator field that must not repeat within one
	// array instance.
	Unique string
	// Companion names the element the topmost occurrence's parent must carry.
	Companion string
	// Categories maps a lower-cased category name to the schema reference
	// validating it.
	Categories map[string]string
	// Structured lists lower-cased categories whose value must be an array.
	Structured []string
	// Attrs keeps any other string-valued attribute.
	Attrs map[string]string
}

// Attr returns a string attribute by name.
func (a *Annotation) Attr(name string) string {
	if a == nil {
		return ""
	}
	switch name {
	case "rule":
		return a.Rule
	case "dataset":
		return a.Dataset
	case "unique":
		return a.Unique
	case "companion":
		return a.Companion
	}
	return a.Attrs[name]
}

// IsStructured reports whether category c requires structured sub-fields.
func (a *Annotation) IsStructured(c string) bool {
	for _, s := range a.Structured {
		if s == c {
			return true
		}
	}
	return false
}

// CategoryNames returns the category names sorted.
func (a *Annotation) CategoryNames() []string {
	out := make([]string, 0, len(a.Categories))
	for k := range a.Categories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func parseAnnotation(loc string, raw any, d *simpleDiag) *Annotation {
	m, ok := raw.(map[string]any)
	if !ok {
		d.warnf("%s: %s is not an object", loc, AnnotationKey)
		return nil
	}
	a := &Annotation{}
	for k, v := range m {
		switch k {
		case "rule", "dataset", "unique", "companion":
			s, ok := v.(string)
			if !ok {
				d.warnf("%s: %s.%s is not a string", loc, AnnotationKey, k)
				continue
			}
			switch k {
			case "rule":
				a.Rule = s
			case "dataset":
				a.Dataset = s
			case "unique":
				a.Unique = s
			case "companion":
				a.Companion = s
			}
		case "codes":
			cm, ok := v.(map[string]any)
			if !ok {
				d.warnf("%s: %s.codes is not an object", loc, AnnotationKey)
				continue
			}
			a.Codes = make(map[string]int, len(cm))
			for ck, cv := range cm {
				n, ok := toInt(cv)
				if !ok {
					d.warnf("%s: code %q is not an integer", loc, ck)
					continue
				}
				if n >= 0 {
					d.warnf("%s: code %q is not negative (%d)", loc, ck, n)
				}
				a.Codes[ck] = n
			}
		case "categories":
			cm, ok := v.(map[string]any)
			if !ok {
				d.warnf("%s: %s.categories is not an object", loc, AnnotationKey)
				continue
			}
			a.Categories = make(map[string]string, len(cm))
			for ck, cv := range cm {
				ref, ok := cv.(string)
				if !ok {
					d.warnf("%s: category %q is not a reference string", loc, ck)
					continue
				}
				name := strings.ToLower(ck)
				if _, dup := a.Categories[name]; dup {
					d.warnf("%s: category %q repeats another name when case is ignored", loc, ck)
				}
				a.Categories[name] = ref
			}
		case "structured":
			arr, ok := v.([]any)
			if !ok {
				d.warnf("%s: %s.structured is not an array", loc, AnnotationKey)
				continue
			}
			for _, it := range arr {
				if s, ok := it.(string); ok {
					a.Structured = append(a.Structured, strings.ToLower(s))
				}
			}
		default:
			s, ok := v.(string)
			if !ok {
				d.warnf("%s: unknown %s attribute %q ignored", loc, AnnotationKey, k)
				continue
			}
			if a.Attrs == nil {
				a.Attrs = map[string]string{}
			}
			a.Attrs[k] = s
		}
	}
	return a
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		n, err := strconv.Atoi(t.String())
		return n, err == nil
	case int:
		return t, true
	case float64:
		n := int(t)
		return n, float64(n) == t
	}
	return 0, false
}
