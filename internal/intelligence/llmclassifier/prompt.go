package llmclassifier

import (
	"fmt"
	"strings"
)

// buildDomainPrompt renders the few-shot semantic-domain prompt.  The model
// must answer with a JSON array; words it cannot place are to be omitted, so
// the caller can mark them NC rather than getting an invented domain.
func buildDomainPrompt(inputs []WordInput, domainCodes []string) string {
	var b strings.Builder
	b.WriteString("Você é um anotador lexicográfico de português brasileiro, especializado em vocabulário regional gaúcho.\n")
	b.WriteString("Classifique cada palavra no domínio semântico mais específico aplicável.\n\n")

	if len(domainCodes) > 0 {
		b.WriteString("Códigos de domínio permitidos: ")
		b.WriteString(strings.Join(domainCodes, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString("Exemplos:\n")
	b.WriteString(`[{"word":"chimarrão","domain_code":"AL","confidence":0.95,"justification":"bebida típica de erva-mate"},` + "\n")
	b.WriteString(` {"word":"minuano","domain_code":"NA","confidence":0.92,"justification":"vento frio do sudoeste"},` + "\n")
	b.WriteString(` {"word":"tropeiro","domain_code":"PR","confidence":0.90,"justification":"condutor de tropas de gado"}]` + "\n\n")

	b.WriteString("Regras:\n")
	b.WriteString("- Responda somente com um array JSON, um objeto por palavra.\n")
	b.WriteString("- Omita palavras que você não consegue classificar; nunca invente um domínio.\n")
	b.WriteString("- confidence em [0,1].\n")
	b.WriteString("- justification: uma frase curta explicando a escolha do domínio.\n\n")

	b.WriteString("Palavras:\n")
	for _, in := range inputs {
		if in.Context != "" {
			fmt.Fprintf(&b, "- %s (contexto: %q)\n", in.Word, in.Context)
		} else {
			fmt.Fprintf(&b, "- %s\n", in.Word)
		}
	}
	return b.String()
}

// buildPOSPrompt renders the few-shot POS prompt over the canonical tagset.
func buildPOSPrompt(inputs []WordInput) string {
	var b strings.Builder
	b.WriteString("Você é um anotador morfossintático de português brasileiro.\n")
	b.WriteString("Atribua a cada palavra uma classe gramatical do conjunto: NOUN, VERB, ADJ, ADV, PRON, ADP, CONJ, DET, NUM, INTERJ.\n\n")

	b.WriteString("Exemplos:\n")
	b.WriteString(`[{"word":"cuia","pos":"NOUN","lemma":"cuia","confidence":0.93},` + "\n")
	b.WriteString(` {"word":"campeava","pos":"VERB","lemma":"campear","confidence":0.91}]` + "\n\n")

	b.WriteString("Regras:\n")
	b.WriteString("- Responda somente com um array JSON, um objeto por palavra.\n")
	b.WriteString("- Inclua o lema na forma canônica (infinitivo para verbos, singular para nomes).\n")
	b.WriteString("- Omita palavras que você não consegue classificar.\n\n")

	b.WriteString("Palavras:\n")
	for _, in := range inputs {
		if in.Context != "" {
			fmt.Fprintf(&b, "- %s (contexto: %q)\n", in.Word, in.Context)
		} else {
			fmt.Fprintf(&b, "- %s\n", in.Word)
		}
	}
	return b.String()
}
