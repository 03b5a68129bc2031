package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gomezmarket/gomezbot-backend/internal/utils"
)

// Intent labels produced by the classifier.
const (
	IntentGreeting       = "greeting"
	IntentProductSearch  = "product_search"
	IntentMenuOption     = "menu_option"
	IntentCartAction     = "cart_action"
	IntentIdentification = "identification"
	IntentHelp           = "help"
	IntentUnknown        = "unknown"
)

// Entities are the values extracted from the winning intent's match.
type Entities struct {
	SearchTerm     string
	Option         string
	Action         string
	ProductIndex   int
	Identification string
}

// Classification is the classifier verdict for one message.
type Classification struct {
	Intent     string
	Confidence float64
	Entities   Entities
}

// intentRule pairs a match pattern with an optional exclusion. The rule fires
// only when pattern matches and exclude does not; exclusions stand in for
// lookaheads so "quiero el producto 2" stays a cart action, not a search.
type intentRule struct {
	intent  string
	pattern *regexp.Regexp
	exclude *regexp.Regexp
}

// Rules match the normalized message: already lower-cased and accent-folded,
// so the patterns carry no accented or upper-case variants.
var intentRules = []intentRule{
	{
		intent:  IntentProductSearch,
		pattern: regexp.MustCompile(`\b(busco|buscar|necesito|quiero|dame|tienes|hay|venden|precio\s+de)\b`),
		exclude: regexp.MustCompile(`\b(quiero|dame)\s+(el\s+)?producto\s+\d`),
	},
	{
		intent:  IntentMenuOption,
		pattern: regexp.MustCompile(`^\s*(opcion\s*)?([1-4])\s*$`),
	},
	{
		intent:  IntentCartAction,
		pattern: regexp.MustCompile(`\b(carrito|vaciar|limpiar|quitar|eliminar|cambiar|proceder|pagar|finalizar|confirmar)\b|\b(agregar|quiero|dame)\s+(el\s+)?producto\s+\d`),
	},
	{
		intent:  IntentIdentification,
		pattern: regexp.MustCompile(`^\s*[vejp]?\s*\d{6,9}\s*$`),
	},
	{
		intent:  IntentGreeting,
		pattern: regexp.MustCompile(`\b(hola|buenas|buenos\s+dias|buenas\s+tardes|buenas\s+noches|saludos|hey|epale)\b`),
	},
	{
		intent:  IntentHelp,
		pattern: regexp.MustCompile(`\b(ayuda|help|menu|opciones|que\s+puedes\s+hacer)\b`),
	},
}

var (
	searchStopwords = map[string]bool{
		"busco": true, "buscar": true, "necesito": true, "quiero": true,
		"dame": true, "tienes": true, "hay": true, "venden": true,
		"me": true, "puedes": true, "dar": true, "el": true, "la": true,
		"los": true, "las": true, "un": true, "una": true, "de": true,
		"precio": true,
		// greeting tokens, so "hola busco arroz" searches just "arroz"
		"hola": true, "buenas": true, "buenos": true, "dias": true,
		"tardes": true, "noches": true, "saludos": true,
	}
	optionPattern = regexp.MustCompile(`\b([1-4])\b`)
	indexPattern  = regexp.MustCompile(`\d+`)
)

// IntentClassifier is the rule-based NLU. It is stateless and safe for
// concurrent use.
type IntentClassifier struct{}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{}
}

// Classify normalizes the message (lower-case, accents folded) and scores it
// against every rule in declared priority order. A later rule only displaces
// an earlier winner with a strictly greater confidence, so on ties the
// higher-priority intent keeps the verdict.
func (c *IntentClassifier) Classify(message string) Classification {
	normalized := utils.NormalizeText(message)
	result := Classification{Intent: IntentUnknown}
	for _, rule := range intentRules {
		if !rule.pattern.MatchString(normalized) {
			continue
		}
		if rule.exclude != nil && rule.exclude.MatchString(normalized) {
			continue
		}
		confidence := scoreConfidence(normalized)
		if confidence > result.Confidence {
			result.Intent = rule.intent
			result.Confidence = confidence
		}
	}
	result.Entities = extractEntities(result.Intent, normalized)
	return result
}

// scoreConfidence grows with message length: base 0.7 plus up to 0.3 at ten
// or more runes, capped at 1.
func scoreConfidence(message string) float64 {
	length := float64(len([]rune(strings.TrimSpace(message))))
	ratio := length / 10
	if ratio > 1 {
		ratio = 1
	}
	confidence := 0.7 + 0.3*ratio
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func extractEntities(intent, message string) Entities {
	e := Entities{}
	switch intent {
	case IntentProductSearch:
		e.SearchTerm = extractSearchTerm(message)
	case IntentMenuOption:
		if m := optionPattern.FindString(message); m != "" {
			e.Option = m
		}
	case IntentCartAction:
		e.Action = strings.ToLower(strings.TrimSpace(message))
		if m := indexPattern.FindString(message); m != "" {
			e.ProductIndex, _ = strconv.Atoi(m)
		}
	case IntentIdentification:
		e.Identification = strings.ToUpper(utils.AlphaNumeric(message))
	}
	return e
}

// extractSearchTerm drops request verbs and filler, keeping tokens longer
// than two runes.
func extractSearchTerm(message string) string {
	normalized := utils.NormalizeText(message)
	var kept []string
	for _, token := range strings.Fields(normalized) {
		if searchStopwords[token] || len([]rune(token)) <= 2 {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
