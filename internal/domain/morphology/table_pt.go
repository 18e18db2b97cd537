package morphology

// defaultPortugueseRules is the built-in Brazilian Portuguese affix table.
// Domain codes reference the platform tagset; POS classes use the canonical
// annotation tagset.  Confidence 0 means the 0.92 baseline.
//
// Suffix order among equal lengths matters: more productive affixes first.
var defaultPortugueseRules = []Rule{
	// Deverbal and abstract nouns.
	{Affix: "ção", Kind: KindDomain, Value: "AB", MinStem: 2},    // ação, criação
	{Affix: "mento", Kind: KindDomain, Value: "AB", MinStem: 2},  // crescimento
	{Affix: "ncia", Kind: KindDomain, Value: "AB", MinStem: 2},   // paciência, ganância
	{Affix: "dade", Kind: KindDomain, Value: "AB", MinStem: 2},   // saudade, cidade
	{Affix: "ismo", Kind: KindDomain, Value: "AB", MinStem: 2},   // tradicionalismo
	{Affix: "ura", Kind: KindDomain, Value: "AB", MinStem: 3},    // doçura, bravura

	// Agents and professions.
	{Affix: "eiro", Kind: KindDomain, Value: "PR", MinStem: 2},   // tropeiro, campeiro
	{Affix: "eira", Kind: KindDomain, Value: "PR", MinStem: 2},   // lavadeira
	{Affix: "ista", Kind: KindDomain, Value: "PR", MinStem: 2},   // tropista, artista
	{Affix: "or", Kind: KindDomain, Value: "PR", MinStem: 4},     // domador, cantor

	// Places and collectives.
	{Affix: "al", Kind: KindDomain, Value: "NA", MinStem: 4},     // erval, capinzal
	{Affix: "ário", Kind: KindDomain, Value: "LU", MinStem: 3},   // campanário

	// Diminutives/augmentatives keep the base vocabulary's register marker.
	{Affix: "zinho", Kind: KindDomain, Value: "AF", MinStem: 2},  // matezinho
	{Affix: "zinha", Kind: KindDomain, Value: "AF", MinStem: 2},  // cuiazinha
	{Affix: "aço", Kind: KindDomain, Value: "AF", MinStem: 3},    // ricaço

	// POS-only signals for the grammar fallbacks.
	{Affix: "mente", Kind: KindPOS, Value: "ADV", MinStem: 3},    // rapidamente
	{Affix: "oso", Kind: KindPOS, Value: "ADJ", MinStem: 2},      // gostoso
	{Affix: "osa", Kind: KindPOS, Value: "ADJ", MinStem: 2},      // teimosa
	{Affix: "ável", Kind: KindPOS, Value: "ADJ", MinStem: 2},     // amável
	{Affix: "ível", Kind: KindPOS, Value: "ADJ", MinStem: 2},     // terrível
	{Affix: "ar", Kind: KindPOS, Value: "VERB", MinStem: 3, Confidence: 0.85}, // chimarrear
	{Affix: "izar", Kind: KindPOS, Value: "VERB", MinStem: 2},    // regionalizar

	// Prefixes.
	{Affix: "des", Prefix: true, Kind: KindPOS, Value: "VERB", MinStem: 4, Confidence: 0.75}, // desencilhar
	{Affix: "re", Prefix: true, Kind: KindPOS, Value: "VERB", MinStem: 5, Confidence: 0.70},  // recostear
}
