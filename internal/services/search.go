package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/gomezmarket/gomezbot-backend/internal/models"
	"github.com/gomezmarket/gomezbot-backend/internal/storage"
	"github.com/gomezmarket/gomezbot-backend/internal/utils"
	"github.com/gomezmarket/gomezbot-backend/internal/valery"
)

// Search strategies, recorded on each result for logging and tests.
const (
	StrategyExact = "exact"
	StrategyWords = "words"
	StrategyNone  = "none"
)

const (
	maxSuggestions = 3
	listDisplayCap = 15
)

var listDelimiters = regexp.MustCompile(`[,;\n]+`)

// SearchResult is one single-term search outcome: the products found, which
// strategy found them, and prior-search suggestions when nothing matched.
type SearchResult struct {
	Term        string
	Products    []models.Product
	Strategy    string
	Suggestions []string
}

// ListStats summarizes a delimited multi-term search.
type ListStats struct {
	TermsSearched  int
	ProductsFound  int
	AveragePerTerm float64
}

// ListResult is the outcome of a product-list search. Displayed carries at
// most listDisplayCap products even when more matched.
type ListResult struct {
	Terms     []string
	Products  []models.Product
	Displayed []models.Product
	Stats     ListStats
}

// SearchService runs the multi-strategy product search against the external
// catalog and records every attempt in the search history.
type SearchService struct {
	catalog valery.CatalogLookup
	store   storage.Store
}

func NewSearchService(catalog valery.CatalogLookup, store storage.Store) *SearchService {
	return &SearchService{catalog: catalog, store: store}
}

// Search normalizes the term, tries the substring strategy and falls back to
// the per-word strategy. The attempt is recorded whatever the outcome; on an
// empty result prior successful searches containing the first token come back
// as suggestions.
func (s *SearchService) Search(ctx context.Context, session *models.Session, rawTerm string) (*SearchResult, error) {
	term := utils.NormalizeText(rawTerm)
	result := &SearchResult{Term: term, Strategy: StrategyNone}
	if term == "" {
		return result, nil
	}

	products, err := s.catalog.SearchProducts(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}
	if len(products) > 0 {
		result.Products = products
		result.Strategy = StrategyExact
	} else {
		words := searchableTokens(term)
		if len(words) > 0 {
			products, err = s.catalog.SearchProductsByWords(ctx, words)
			if err != nil {
				return nil, fmt.Errorf("word search: %w", err)
			}
			if len(products) > 0 {
				result.Products = products
				result.Strategy = StrategyWords
			}
		}
	}

	s.record(session, rawTerm, term, len(result.Products))

	if len(result.Products) == 0 {
		if token := firstToken(term); token != "" {
			suggestions, err := s.store.GetSearchSuggestions(session.PhoneNumber, token, maxSuggestions)
			if err != nil {
				log.Printf("⚠️ Sugerencias no disponibles para %s: %v", session.PhoneNumber, err)
			} else {
				result.Suggestions = suggestions
			}
		}
	}

	log.Printf("🔍 Búsqueda '%s' (%s): %d productos", term, result.Strategy, len(result.Products))
	return result, nil
}

// SearchList handles a delimited product list in a single message. Each
// usable term is searched as a group; stats cover the whole list.
func (s *SearchService) SearchList(ctx context.Context, session *models.Session, rawMessage string) (*ListResult, error) {
	terms := SplitListTerms(rawMessage)
	result := &ListResult{Terms: terms}
	if len(terms) == 0 {
		return result, nil
	}

	products, err := s.catalog.SearchProductsAny(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("list search: %w", err)
	}
	result.Products = products
	result.Displayed = products
	if len(result.Displayed) > listDisplayCap {
		result.Displayed = result.Displayed[:listDisplayCap]
	}
	result.Stats = ListStats{
		TermsSearched: len(terms),
		ProductsFound: len(products),
	}
	if len(terms) > 0 {
		result.Stats.AveragePerTerm = Round2(float64(len(products)) / float64(len(terms)))
	}

	s.record(session, rawMessage, strings.Join(terms, ", "), len(products))
	log.Printf("📋 Lista de %d términos: %d productos", len(terms), len(products))
	return result, nil
}

// IsProductList reports whether the message reads as a delimited list of
// products rather than a single term.
func IsProductList(message string) bool {
	if !strings.ContainsAny(message, ",;\n") {
		return false
	}
	return len(SplitListTerms(message)) >= 2
}

// SplitListTerms breaks a delimited message into normalized search terms,
// dropping fragments too short to search.
func SplitListTerms(message string) []string {
	var terms []string
	for _, part := range listDelimiters.Split(message, -1) {
		term := utils.NormalizeText(part)
		if len([]rune(term)) > 2 {
			terms = append(terms, term)
		}
	}
	return terms
}

func (s *SearchService) record(session *models.Session, original, normalized string, results int) {
	session.SearchCount++
	entry := &models.SearchHistory{
		PhoneNumber:        session.PhoneNumber,
		SearchTerm:         normalized,
		OriginalSearchTerm: strings.TrimSpace(original),
		ResultsCount:       results,
		HasResults:         results > 0,
		SessionContext:     session.Context,
		ChatbotID:          session.ChatbotID,
	}
	if err := s.store.SaveSearch(entry); err != nil {
		log.Printf("⚠️ No se pudo guardar la búsqueda de %s: %v", session.PhoneNumber, err)
	}
}

// LastSearchProducts re-runs the sender's most recent successful search, used
// when a cart action references a product by its listed index.
func (s *SearchService) LastSearchProducts(ctx context.Context, session *models.Session) ([]models.Product, error) {
	searches, err := s.store.GetRecentSearches(session.PhoneNumber, 10)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	for _, search := range searches {
		if !search.HasResults {
			continue
		}
		products, err := s.catalog.SearchProducts(ctx, search.SearchTerm)
		if err != nil {
			return nil, fmt.Errorf("re-run search: %w", err)
		}
		if len(products) == 0 {
			words := searchableTokens(search.SearchTerm)
			if len(words) > 0 {
				products, err = s.catalog.SearchProductsByWords(ctx, words)
				if err != nil {
					return nil, fmt.Errorf("re-run word search: %w", err)
				}
			}
		}
		if len(products) > 0 {
			return products, nil
		}
	}
	return nil, nil
}

func searchableTokens(term string) []string {
	var tokens []string
	for _, token := range strings.Fields(term) {
		if len([]rune(token)) > 2 {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func firstToken(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Round2 rounds to two decimals, the precision of every displayed amount.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PriceBs converts a USD price at the given rate and rounds to one decimal,
// the precision bolívar prices are displayed at.
func PriceBs(usd, rate float64) float64 {
	return math.Round(usd*rate*10) / 10
}
