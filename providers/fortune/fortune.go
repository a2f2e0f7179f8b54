/*
Copyright (c) the aprsbot authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package fortune answers magic-8-ball questions. Started out as a
// UTF-8 and language selection test fixture and stayed because people
// kept asking it things.
package fortune

import (
	"math/rand"
	"strings"
	"sync"
)

var answers = map[string][]string{
	"en": {
		"It is certain",
		"It is decidedly so",
		"Without a doubt",
		"Yes – definitely",
		"You may rely on it",
		"As I see it, yes",
		"Most likely",
		"Outlook good",
		"Yes",
		"Signs point to yes",
		"Reply hazy, try again",
		"Ask again later",
		"Better not tell you now",
		"Cannot predict now",
		"Concentrate and ask again",
		"Don't count on it",
		"My reply is no",
		"My sources say no",
		"Outlook not so good",
		"Very doubtful",
	},
	"de": {
		"Es ist sicher",
		"Es ist eindeutig so",
		"Zweifelsfrei",
		"Ja - definitiv",
		"Du kannst Dich darauf verlassen",
		"So wie ich es sehe: ja",
		"Sehr wahrscheinlich",
		"Meine Prognose ist: gut",
		"Ja",
		"Alle Zeichen sagen: ja",
		"Antwort unklar; versuche es noch einmal",
		"Frag mich später noch einmal",
		"Ich verrate es Dir besser jetzt noch nicht",
		"Vorhersage derzeit nicht möglich",
		"Konzentriere Dich und frage mich nochmals",
		"Verlass Dich nicht darauf",
		"Meine Antwort ist nein",
		"Meine Prognose ist: nicht gut",
		"Sehr zweifelhaft",
	},
	"es": {
		"En mi opinión, sí",
		"Es cierto",
		"Es decididamente así",
		"Probablemente",
		"Buen pronóstico",
		"Todo apunta a que sí",
		"Sin duda",
		"Sí",
		"Sí - definitivamente",
		"Debes confiar en ello",
		"Respuesta vaga, vuelve a intentarlo",
		"Pregunta en otro momento",
		"Será mejor que no te lo diga ahora",
		"No puedo predecirlo ahora",
		"Concéntrate y vuelve a preguntar",
		"No cuentes con ello",
		"Mi respuesta es no",
		"Mis fuentes me dicen que no",
		"Las perspectivas no son buenas",
		"Muy dudoso",
	},
	"fr": {
		"D'après moi oui",
		"C'est certain",
		"Oui absolument",
		"Tu peux compter dessus",
		"Sans aucun doute",
		"Très probable",
		"Oui",
		"C'est bien parti",
		"Essaye plus tard",
		"Essaye encore",
		"Pas d'avis",
		"C'est ton destin",
		"Le sort en est jeté",
		"Une chance sur deux",
		"Repose ta question",
		"C'est non",
		"Peu probable",
		"Faut pas rêver",
		"N'y compte pas",
		"Impossible",
	},
	"it": {
		"Per quanto posso vedere, sì",
		"È certo",
		"È decisamente così",
		"Molto probabilmente",
		"Le prospettive sono buone",
		"I segni indicano di sì",
		"Senza alcun dubbio",
		"Sì",
		"Sì, senza dubbio",
		"Ci puoi contare",
		"È difficile rispondere, prova di nuovo",
		"Rifai la domanda più tardi",
		"Meglio non risponderti adesso",
		"Non posso predirlo ora",
		"Concentrati e rifai la domanda",
		"Non ci contare",
		"La mia risposta è no",
		"Le mie fonti dicono di no",
		"Le prospettive non sono buone",
		"Molto incerto",
	},
}

var (
	mu  sync.Mutex
	rng = rand.New(rand.NewSource(1))
)

// Seed reseeds the answer picker, mainly for tests.
func Seed(seed int64) {
	mu.Lock()
	defer mu.Unlock()
	rng = rand.New(rand.NewSource(seed))
}

// Tell picks an answer in the requested language, falling back to
// English for languages without a translation.
func Tell(language string) string {
	list, ok := answers[strings.ToLower(language)]
	if !ok {
		list = answers["en"]
	}
	mu.Lock()
	defer mu.Unlock()
	return list[rng.Intn(len(list))]
}

// Languages lists the translations available.
func Languages() []string {
	langs := make([]string, 0, len(answers))
	for l := range answers {
		langs = append(langs, l)
	}
	return langs
}
