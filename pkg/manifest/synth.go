package manifest

import "fmt"

// Base URLs for synthesized modules. Variables so tests and mirrors can
// point them elsewhere.
var (
	DocumentationBaseURL = "https://storage.googleapis.com/docscloudstorage"
	LocalizationBaseURL  = "https://new-translate.unity3d.jp/v1/live/54"
)

// languagePack describes a localization pack and the first release
// that ships it.
type languagePack struct {
	id           ComponentID
	code         string
	title        string
	major, minor uint64
}

var languagePacks = []languagePack{
	{LanguageJa, "ja", "日本語", 2018, 1},
	{LanguageKo, "ko", "한국어", 2018, 1},
	{LanguageZhHans, "zh-hans", "简体中文", 2018, 2},
	{LanguageZhHant, "zh-hant", "繁體中文", 2018, 2},
	{LanguageFr, "fr", "Français", 2019, 1},
	{LanguageEs, "es", "Español", 2019, 1},
	{LanguageDe, "de", "Deutsch", 2019, 1},
	{LanguageRu, "ru", "Русский", 2019, 1},
	{LanguagePtBr, "pt-br", "Português (Brasil)", 2019, 1},
}

// Synthesize appends modules that catalogs never list but every
// installation of m.Version can have: the offline documentation package
// (2018.1 and later) and the localization packs available for the
// release. Modules already present in the catalog win. The result depends
// only on the version and platform.
func Synthesize(m *Manifest) {
	v := m.Version
	if !v.AtLeast(2018, 1) {
		return
	}

	m.add(Module{
		ID:          Documentation,
		Title:       "Documentation",
		Description: "Offline documentation",
		Category:    "Documentation",
		DownloadURL: fmt.Sprintf("%s/%s/UnityDocumentation.zip", DocumentationBaseURL, v.MajorMinor()),
		Destination: BasePathPlaceholder,
		Format:      "zip",
		Visible:     true,
	})

	for _, lp := range languagePacks {
		if !v.AtLeast(lp.major, lp.minor) {
			continue
		}
		m.add(Module{
			ID:          lp.id,
			Title:       lp.title,
			Description: lp.title + " language pack",
			Category:    "Language packs (Preview)",
			DownloadURL: fmt.Sprintf("%s/%s/%s.po", LocalizationBaseURL, v.MajorMinor(), lp.code),
			Destination: LocalizationDir(m.Platform),
			Format:      "po",
			Visible:     true,
		})
	}
}
