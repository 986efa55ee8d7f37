package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type translation struct {
	key string
	msg string
}

var catalog = map[language.Tag][]translation{
	language.German: {
		{"Showing %d - %d of %d", "Zeige %d - %d von %d"},
		{"No results found for %s", "Keine Ergebnisse für %s"},
		{"your query", "Ihre Suche"},
		{"Previous", "Zurück"},
		{"Next", "Weiter"},
		{"Show All", "Alle anzeigen"},
		{"See More", "Mehr anzeigen"},
		{"Search", "Suche"},
		{"Loading", "Wird geladen"},
	},
	language.Spanish: {
		{"Showing %d - %d of %d", "Mostrando %d - %d de %d"},
		{"No results found for %s", "No se encontraron resultados para %s"},
		{"your query", "su búsqueda"},
		{"Previous", "Anterior"},
		{"Next", "Siguiente"},
		{"Show All", "Mostrar todo"},
		{"See More", "Ver más"},
		{"Search", "Buscar"},
		{"Loading", "Cargando"},
	},
}

func init() {
	for tag, entries := range catalog {
		for _, e := range entries {
			// SetString only fails for malformed tags, which the table cannot hold.
			_ = message.SetString(tag, e.key, e.msg)
		}
	}
}
