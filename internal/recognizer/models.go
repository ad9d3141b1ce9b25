// Package recognizer manages acoustic model selection and offline
// transcription sessions for uploaded audio files. At most one session is
// live per editor instance: loading a new model always terminates the
// previous session first.
package recognizer

import (
	"fmt"
	"strings"
)

// ModelDescriptor is a static catalog entry for a downloadable acoustic
// model archive.
type ModelDescriptor struct {
	Lang string `json:"lang"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Catalog is the built-in model catalog, ordered by display name.
var Catalog = []ModelDescriptor{
	{Lang: "ca-ES", Name: "Catalan", Path: "model-small-ca-0.4.tar.gz"},
	{Lang: "zh-TW", Name: "Chinese", Path: "model-small-cn-0.3.tar.gz"},
	{Lang: "de-DE", Name: "Deutsch", Path: "model-small-de-0.15.tar.gz"},
	{Lang: "en-IN", Name: "Indian English", Path: "model-small-en-in-0.4.tar.gz"},
	{Lang: "en-GB", Name: "English", Path: "model-small-en-us-0.15.tar.gz"},
	{Lang: "es-ES", Name: "Español", Path: "model-small-es-0.3.tar.gz"},
	{Lang: "fa-IR", Name: "Farsi", Path: "model-small-fa-0.4.tar.gz"},
	{Lang: "fr-FR", Name: "French", Path: "model-small-fr-pguyot-0.3.tar.gz"},
	{Lang: "it-IT", Name: "Italiano", Path: "model-small-it-0.4.tar.gz"},
	{Lang: "ml-IN", Name: "Malayalam", Path: "model-malayalam-bigram.tar.gz"},
	{Lang: "pt-PT", Name: "Portuguese", Path: "model-small-pt-0.3.tar.gz"},
	{Lang: "ru-RU", Name: "Russian", Path: "model-small-ru-0.4.tar.gz"},
	{Lang: "tr-TR", Name: "Turkish", Path: "model-small-tr-0.3.tar.gz"},
	{Lang: "vi-VN", Name: "Vietnamese", Path: "model-small-vn-0.3.tar.gz"},
}

// FindModel resolves a locale tag to a catalog entry. Resolution is
// deterministic: exact tag match first, then the first entry sharing the
// primary language subtag, then the English model.
func FindModel(lang string) (ModelDescriptor, error) {
	if lang == "" {
		return FindModel("en-GB")
	}
	for _, m := range Catalog {
		if strings.EqualFold(m.Lang, lang) {
			return m, nil
		}
	}

	primary := lang
	if i := strings.IndexByte(lang, '-'); i > 0 {
		primary = lang[:i]
	}
	for _, m := range Catalog {
		if strings.EqualFold(strings.SplitN(m.Lang, "-", 2)[0], primary) {
			return m, nil
		}
	}

	for _, m := range Catalog {
		if m.Lang == "en-GB" {
			return m, nil
		}
	}
	return ModelDescriptor{}, fmt.Errorf("no model for language %q", lang)
}
