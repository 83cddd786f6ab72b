package prompt

import (
	"strings"

	"github.com/example/scriptforge/api-go/internal/culture"
)

const titlePlaceholder = "{title}"

var demoScripts = map[culture.Language]string{
	culture.PortugueseBR: `Fala, galera! Hoje vou ensinar como fazer {title}.

Olha só, mano, isso aqui é tipo assim, super fácil de fazer, saca? O João, meu vizinho aqui da favela do Rio, me ensinou esse truque e cara, mudou minha vida!

Primeiro, você vai precisar de alguns ingredientes básicos. Nada muito complicado, pode comprar tudo no mercadinho da esquina mesmo. A dica de ouro é: não tenha pressa, vai com calma que dá certo.

O segredo tá nos detalhes, mano. Muita gente erra porque quer fazer correndo. Mas se você seguir essas dicas, garanto que vai ficar show de bola!

E aí, curtiu? Deixa nos comentários se funcionou pra você! Valeu, galera!`,

	culture.EnglishUS: `Hey guys! Today I'm gonna show you how to do {title}.

So, like, this is literally the easiest thing ever, you know what I mean? My buddy Mike from downtown Manhattan showed me this trick and dude, it's a total game changer!

First off, you're gonna need some basic stuff. Nothing too crazy, you can grab everything at your local store. The key thing is: don't rush it, take your time and you'll be fine.

The secret is in the details, dude. A lot of people mess up because they're in a hurry. But if you follow these tips, I guarantee you it's gonna turn out awesome!

So yeah, did you like it? Let me know in the comments if it worked for you! Peace out!`,

	culture.SpanishES: `¡Hola, tíos! Hoy os voy a enseñar cómo hacer {title}.

Ostras, esto es flipante de fácil, ¿vale? Mi colega Carlos del barrio de Malasaña me enseñó este truco y tío, me cambió la vida por completo.

Primero, vais a necesitar algunos ingredientes básicos. Nada del otro mundo, podéis comprar todo en el súper de la esquina. El consejo de oro es: no tengáis prisa, hacedlo con calma que sale bien.

El secreto está en los detalles, tíos. Mucha gente la lía porque quiere hacerlo corriendo. Pero si seguís estos consejos, os garantizo que va a quedar de lujo.

¿Y qué? ¿Os ha gustado? Dejadme en los comentarios si os ha funcionado. ¡Hasta luego!`,

	culture.FrenchFR: `Salut les gars ! Aujourd'hui je vais vous montrer comment faire {title}.

Putain, c'est grave facile, en fait. Mon pote Pierre du Marais m'a montré cette astuce et voilà, ça a changé ma vie !

D'abord, vous allez avoir besoin de quelques trucs de base. Rien de fou, vous pouvez tout acheter au supermarché du coin. Le conseil en or c'est : ne vous précipitez pas, prenez votre temps et ça va le faire.

Le secret c'est dans les détails, les gars. Beaucoup de gens se plantent parce qu'ils veulent aller trop vite. Mais si vous suivez ces conseils, je vous garantis que ça va être nickel !

Alors, ça vous a plu ? Dites-moi dans les commentaires si ça a marché pour vous ! À plus !`,

	culture.GermanDE: `Hey Leute! Heute zeige ich euch, wie man {title} macht.

Also, das ist echt krass einfach, genau. Mein Kumpel Hans aus Kreuzberg hat mir diesen Trick gezeigt und halt, das hat mein Leben verändert!

Zuerst braucht ihr ein paar grundlegende Sachen. Nichts Verrücktes, ihr könnt alles im Supermarkt um die Ecke kaufen. Der goldene Tipp ist: Lasst euch Zeit, macht es in Ruhe, dann klappt's.

Das Geheimnis liegt in den Details, Leute. Viele Leute machen Fehler, weil sie es zu schnell machen wollen. Aber wenn ihr diese Tipps befolgt, garantiere ich euch, dass es super wird!

Also, hat's euch gefallen? Schreibt in die Kommentare, ob es bei euch funktioniert hat! Tschüss!`,

	culture.ItalianIT: `Ciao ragazzi! Oggi vi mostro come fare {title}.

Dai, questa cosa è boh, facilissima, cioè. Il mio amico Marco di Trastevere mi ha insegnato questo trucco e vabbè, mi ha cambiato la vita!

Prima di tutto, vi servono alcune cose base. Niente di che, potete comprare tutto al supermercato sotto casa. Il consiglio d'oro è: non abbiate fretta, fatelo con calma che viene bene.

Il segreto sta nei dettagli, ragazzi. Tanta gente sbaglia perché vuole fare di corsa. Ma se seguite questi consigli, vi garantisco che verrà benissimo!

Allora, vi è piaciuto? Scrivetemi nei commenti se ha funzionato per voi! Ciao!`,
}

// Demo substitutes title into the canned script for lang. Generic uses the
// en-US script.
func Demo(title string, lang culture.Language) string {
	tmpl, ok := demoScripts[lang]
	if !ok {
		tmpl = demoScripts[culture.EnglishUS]
	}
	return strings.ReplaceAll(tmpl, titlePlaceholder, title)
}
