package catalog

// Language is one supported target language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages is the full target set, in processing order. Static for a run.
var Languages = []Language{
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"nl", "Dutch"},
	{"pl", "Polish"},
	{"ro", "Romanian"},
	{"cs", "Czech"},
	{"sk", "Slovak"},
	{"hu", "Hungarian"},
	{"bg", "Bulgarian"},
	{"hr", "Croatian"},
	{"sl", "Slovenian"},
	{"el", "Greek"},
	{"sv", "Swedish"},
	{"da", "Danish"},
	{"nb", "Norwegian"},
	{"fi", "Finnish"},
	{"et", "Estonian"},
	{"lv", "Latvian"},
	{"lt", "Lithuanian"},
	{"ru", "Russian"},
	{"uk", "Ukrainian"},
	{"tr", "Turkish"},
	{"ar", "Arabic"},
	{"he", "Hebrew"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"zh", "Chinese (Simplified)"},
	{"th", "Thai"},
	{"vi", "Vietnamese"},
}

// LanguageByCode looks a language up by its code.
func LanguageByCode(code string) (Language, bool) {
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// SelectLanguages resolves a list of codes to Languages, preserving the
// catalogue order. Unknown codes are returned separately. An empty input
// selects the whole catalogue.
func SelectLanguages(codes []string) ([]Language, []string) {
	if len(codes) == 0 {
		out := make([]Language, len(Languages))
		copy(out, Languages)
		return out, nil
	}

	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}

	var out []Language
	for _, l := range Languages {
		if want[l.Code] {
			out = append(out, l)
			delete(want, l.Code)
		}
	}

	var unknown []string
	for c := range want {
		unknown = append(unknown, c)
	}
	return out, unknown
}
