// Package prompt builds the instructions sent to the text model and the canned
// scripts used in demo mode.
package prompt

import (
	"fmt"
	"strings"

	"github.com/example/scriptforge/api-go/internal/culture"
)

// SystemMessage frames every completion request.
const SystemMessage = "You are a creative scriptwriter who creates authentic, culturally-adapted content."

// Build returns the instruction for writing an original script about title in
// lang. Generic gets a short English instruction without cultural context.
func Build(title string, lang culture.Language) string {
	p := lang.Profile()
	expr := strings.Join(p.Expressions, ", ")

	switch lang {
	case culture.PortugueseBR:
		return fmt.Sprintf(`Você é um roteirista brasileiro criativo. Crie um roteiro ORIGINAL e AUTÊNTICO em português brasileiro sobre o tema: "%s".

IMPORTANTE - Adaptação Cultural Brasileira:
- Use nomes brasileiros típicos (ex: %s, Maria, José)
- Inclua gírias e expressões brasileiras naturais: %s
- Situe a história %s
- Use referências culturais brasileiras (comidas, lugares, costumes)
- Tom informal e próximo, como brasileiros falam no dia a dia

O roteiro deve ter entre 150-200 palavras, ser envolvente e soar 100%% natural para um brasileiro.
Não traduza de outros idiomas - crie algo ORIGINAL em português brasileiro.`, title, p.ExampleName, expr, p.Setting)

	case culture.EnglishUS:
		return fmt.Sprintf(`You are a creative American scriptwriter. Create an ORIGINAL and AUTHENTIC script in American English about: "%s".

IMPORTANT - American Cultural Adaptation:
- Use typical American names (e.g., %s, Sarah, John)
- Include natural American slang and expressions: %s
- Set the story %s
- Use American cultural references (foods, places, customs)
- Casual and relatable tone, like Americans speak in everyday life

The script should be 150-200 words, engaging, and sound 100%% natural to an American.
Don't translate from other languages - create something ORIGINAL in American English.`, title, p.ExampleName, expr, p.Setting)

	case culture.SpanishES:
		return fmt.Sprintf(`Eres un guionista español creativo. Crea un guion ORIGINAL y AUTÉNTICO en español de España sobre: "%s".

IMPORTANTE - Adaptación Cultural Española:
- Usa nombres españoles típicos (ej: %s, María, Javier)
- Incluye jerga y expresiones españolas naturales: %s
- Sitúa la historia %s
- Usa referencias culturales españolas (comidas, lugares, costumbres)
- Tono informal y cercano, como hablan los españoles en el día a día

El guion debe tener entre 150-200 palabras, ser atractivo y sonar 100%% natural para un español.
No traduzcas de otros idiomas - crea algo ORIGINAL en español de España.`, title, p.ExampleName, expr, p.Setting)

	case culture.FrenchFR:
		return fmt.Sprintf(`Tu es un scénariste français créatif. Crée un script ORIGINAL et AUTHENTIQUE en français sur: "%s".

IMPORTANT - Adaptation Culturelle Française:
- Utilise des prénoms français typiques (ex: %s, Marie, Jean)
- Inclus de l'argot et des expressions françaises naturelles: %s
- Situe l'histoire %s
- Utilise des références culturelles françaises (nourriture, lieux, coutumes)
- Ton informel et proche, comme les Français parlent au quotidien

Le script doit faire entre 150-200 mots, être captivant et sonner 100%% naturel pour un Français.
Ne traduis pas d'autres langues - crée quelque chose d'ORIGINAL en français.`, title, p.ExampleName, expr, p.Setting)

	case culture.GermanDE:
		return fmt.Sprintf(`Du bist ein kreativer deutscher Drehbuchautor. Erstelle ein ORIGINALES und AUTHENTISCHES Skript auf Deutsch über: "%s".

WICHTIG - Deutsche Kulturelle Anpassung:
- Verwende typische deutsche Namen (z.B. %s, Anna, Michael)
- Füge natürliche deutsche Slang und Ausdrücke ein: %s
- Setze die Geschichte %s
- Verwende deutsche kulturelle Referenzen (Essen, Orte, Bräuche)
- Informeller und nahbarer Ton, wie Deutsche im Alltag sprechen

Das Skript sollte 150-200 Wörter haben, fesselnd sein und 100%% natürlich für einen Deutschen klingen.
Übersetze nicht aus anderen Sprachen - erstelle etwas ORIGINALES auf Deutsch.`, title, p.ExampleName, expr, p.Setting)

	case culture.ItalianIT:
		return fmt.Sprintf(`Sei uno sceneggiatore italiano creativo. Crea uno script ORIGINALE e AUTENTICO in italiano su: "%s".

IMPORTANTE - Adattamento Culturale Italiano:
- Usa nomi italiani tipici (es: %s, Giulia, Luca)
- Includi slang ed espressioni italiane naturali: %s
- Ambienta la storia %s
- Usa riferimenti culturali italiani (cibo, luoghi, costumi)
- Tono informale e vicino, come parlano gli italiani nella vita quotidiana

Lo script deve essere di 150-200 parole, coinvolgente e suonare 100%% naturale per un italiano.
Non tradurre da altre lingue - crea qualcosa di ORIGINALE in italiano.`, title, p.ExampleName, expr, p.Setting)

	default:
		return fmt.Sprintf("Create an original script about: %s. Length: 150-200 words.", title)
	}
}
