package i18n

import "strings"

// Translator retrieves localized messages for entry codes.
// data provides optional values substituted into {name} placeholders
// (for example "type" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"format_error":  "{type}: field '{field}' has an unexpected document shape",
		"field_decode":  "{type}: field '{field}' could not be decoded",
		"unknown_key":   "{type}: unknown key '{key}'",
		"duplicate_key": "key '{key}' duplicated",
		"parse_error":   "parse error",
		"truncated":     "max bytes exceeded",
		"trailing_data": "data after the root value ignored",
		"null_root":     "{type}: document is null",
	},
	"ja": {
		"format_error":  "{type}: フィールド '{field}' の文書構造が不正です",
		"field_decode":  "{type}: フィールド '{field}' の値を復元できません",
		"unknown_key":   "{type}: 未知のキー '{key}' です",
		"duplicate_key": "キー '{key}' が重複しています",
		"parse_error":   "解析エラー",
		"truncated":     "最大バイト数を超えました",
		"trailing_data": "ルート値の後のデータは無視されました",
		"null_root":     "{type}: 文書が null です",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
