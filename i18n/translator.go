package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Message keys used when building findings.
const (
	KeyDocumentStructure  = "structure.document"
	KeyStructure          = "structure"
	KeyDuplicate          = "duplicate"
	KeyType               = "type"
	KeyEnum               = "enum"
	KeyDataset            = "dataset"
	KeySyntax             = "syntax"
	KeyAllocation         = "allocation"
	KeySpecial            = "special"
	KeyRequired           = "required"
	KeyUnknown            = "unknown"
	KeyKeyword            = "keyword"
	KeyValidation         = "validation"
	KeyUnique             = "unique"
	KeyTopmost            = "topmost"
	KeyCategoryUnknown    = "categoryUnknown"
	KeyCategoryInvalid    = "categoryInvalid"
	KeyCategoryStructured = "categoryStructured"
)

// Translator retrieves the message for a finding key.
// data provides the values substituted for {name} placeholders (for example
// "key" or "label").
type Translator interface {
	Message(key string, data map[string]string) string
}

// Dict is the built-in template-based Translator.
type Dict map[string]string

// Message expands the template for key. Unknown keys yield the key itself
// so that a missing template is visible rather than silently empty.
func (d Dict) Message(key string, data map[string]string) string {
	tpl, ok := d[key]
	if !ok {
		return key
	}
	if len(data) == 0 || !strings.Contains(tpl, "{") {
		return tpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// With returns a copy of d with overrides applied.
func (d Dict) With(overrides map[string]string) Dict {
	out := make(Dict, len(d)+len(overrides))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

var english = Dict{
	KeyDocumentStructure:  "The JSON document is not syntactically valid.",
	KeyStructure:          "The {pointer} structure is not syntactically valid.",
	KeyDuplicate:          "The name in the name/value pair was found more than once.",
	KeyType:               "The JSON value is not a {types}.",
	KeyEnum:               "The JSON value is not included in the enumeration: {values}.",
	KeyDataset:            "The JSON value is not included as a Value in the {label} dataset.",
	KeySyntax:             "The value is not a syntactically valid {format}.",
	KeyAllocation:         "The IP address is not included in the allocated {label}.",
	KeySpecial:            "The IP address is included in the {label}.",
	KeyRequired:           "The {key} element does not exist.",
	KeyUnknown:            "The name in the name/value pair is not one of: {keys}.",
	KeyKeyword:            "The JSON value does not satisfy the {keyword} constraint.",
	KeyValidation:         "The value for the JSON name value does not pass {pointer} validation [{rule}].",
	KeyUnique:             "An {field} value exists more than once within the {array} array.",
	KeyTopmost:            "The {element} data structure appears below the topmost object and the topmost object does not contain {companion}.",
	KeyCategoryUnknown:    "The {category} category is not a known category.",
	KeyCategoryInvalid:    "The {category} value is not syntactically valid.",
	KeyCategoryStructured: "The {category} value must be a structured array of sub-fields.",
}

var japanese = Dict{
	KeyDocumentStructure:  "JSON 文書の構文が不正です。",
	KeyStructure:          "{pointer} の構造が不正です。",
	KeyDuplicate:          "名前/値ペアの名前が重複しています。",
	KeyType:               "JSON 値が {types} ではありません。",
	KeyEnum:               "JSON 値が列挙 {values} に含まれていません。",
	KeyDataset:            "JSON 値が {label} データセットに含まれていません。",
	KeySyntax:             "値が {format} として構文的に不正です。",
	KeyAllocation:         "IP アドレスが割り当て済みの {label} に含まれていません。",
	KeySpecial:            "IP アドレスが {label} に含まれています。",
	KeyRequired:           "{key} 要素が存在しません。",
	KeyUnknown:            "名前/値ペアの名前が次のいずれでもありません: {keys}。",
	KeyKeyword:            "JSON 値が {keyword} 制約を満たしていません。",
	KeyValidation:         "JSON 値が {pointer} の検証 [{rule}] に合格しません。",
	KeyUnique:             "{array} 配列内で {field} の値が重複しています。",
	KeyTopmost:            "{element} が最上位以外に出現し、最上位オブジェクトに {companion} がありません。",
	KeyCategoryUnknown:    "{category} は未知のカテゴリです。",
	KeyCategoryInvalid:    "{category} の値が不正です。",
	KeyCategoryStructured: "{category} の値は構造化された配列である必要があります。",
}

// English returns a copy of the default dictionary.
func English() Dict { return english.With(nil) }

var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
)

// ForLanguage returns the built-in dictionary closest to the BCP 47 tag
// lang. Unknown or unparsable tags fall back to English.
func ForLanguage(lang string) Dict {
	tag, _ := language.MatchStrings(matcher, lang)
	if base, _ := tag.Base(); base.String() == "ja" {
		return japanese.With(nil)
	}
	return English()
}

// Default is the Translator used when none is configured.
func Default() Translator { return english }
