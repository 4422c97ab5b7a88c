package postindex

// builtinMessages is the message catalogue shipped with the default
// templates. English is the key itself.
var builtinMessages = map[string]map[string]string{
	"de": {
		"Also available in:":   "Auch verfügbar in:",
		"Comments":             "Kommentare",
		"Newer posts":          "Neuere Einträge",
		"Older posts":          "Ältere Einträge",
		"Posts by %s":          "Einträge von %s",
		"Server error":         "Serverfehler",
		"Skip to main content": "Springe zum Hauptinhalt",
	},
	"es": {
		"Also available in:":   "También disponible en:",
		"Comments":             "Comentarios",
		"Newer posts":          "Posts nuevos",
		"Older posts":          "Posts antiguos",
		"Posts by %s":          "Posts de %s",
		"Server error":         "Error del servidor",
		"Skip to main content": "Saltar al contenido principal",
	},
	"fr": {
		"Also available in:":   "Également disponible en :",
		"Comments":             "Commentaires",
		"Newer posts":          "Billets plus récents",
		"Older posts":          "Anciens billets",
		"Posts by %s":          "Billets de %s",
		"Server error":         "Erreur du serveur",
		"Skip to main content": "Aller au contenu principal",
	},
}

// Message returns the translation of key in lang. Configured messages win
// over the built-in catalogue, and a key without a translation is returned
// unchanged. An empty lang means the default language.
func (b *Blog) Message(key, lang string) string {
	if lang == "" {
		lang = b.Lang
	}
	if msg, ok := b.Messages[lang][key]; ok {
		return msg
	}
	if msg, ok := builtinMessages[lang][key]; ok {
		return msg
	}
	return key
}
