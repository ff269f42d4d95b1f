package rules

import (
	"fmt"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

// Structural markers of the deciding body, already folded.
var structuralMarkers = map[domain.StructuralMarker][]string{
	domain.MarkerMonocratic: {
		"decisao monocratica",
		"monocraticamente",
		"decido monocraticamente",
		"art. 932",
		"relator, decido",
	},
	domain.MarkerCollegiate: {
		"acordao",
		"acordam",
		"por unanimidade",
		"por maioria",
		"turma julgadora",
		"camara civel",
		"orgao colegiado",
	},
}

// DefaultGuardMarkers are the words that indicate notification structure.
// A trailing "*" marks a stem matched at the start of a word.
var DefaultGuardMarkers = []string{
	"intima*", "publica*", "processo", "processos", "autos", "juiz", "juiza", "juizo",
	"sentenc*", "decis*", "despach*", "vara", "varas", "tribunal", "acordao",
	"relator*", "comarca", "prazo", "prazos",
}

// document is the folded view of a domain.Document shared by all predicates.
type document struct {
	folded string
	source string
	words  int
}

func newDocument(doc domain.Document) document {
	return document{
		folded: Fold(doc.Text),
		source: doc.SourceName,
		words:  WordCount(doc.Text),
	}
}

// matches evaluates a predicate against a folded document.
func matches(p domain.TextPredicate, doc document) (bool, error) {
	switch p.Kind {
	case domain.PredicateAlways:
		return true, nil
	case domain.PredicatePhrases:
		for _, phrase := range p.Phrases {
			if containsPhrase(doc.folded, phrase) {
				return true, nil
			}
		}
		return false, nil
	case domain.PredicateStructural:
		markers, ok := structuralMarkers[p.Marker]
		if !ok {
			return false, fmt.Errorf("%w: unknown structural marker %q", domain.ErrInvalidPolicy, p.Marker)
		}
		for _, m := range markers {
			if containsPhrase(doc.folded, m) {
				return true, nil
			}
		}
		return false, nil
	case domain.PredicateExpr:
		ev, err := evaluator()
		if err != nil {
			return false, err
		}
		return ev.eval(p.Expr, exprInput{text: doc.folded, words: doc.words, source: doc.source})
	default:
		return false, fmt.Errorf("%w: unknown predicate kind %q", domain.ErrInvalidPolicy, p.Kind)
	}
}

// hasStructure reports whether the document shows any notification structure:
// a guard marker or a trigger of any non-fallback rule.
func hasStructure(policy *domain.Policy, doc document) bool {
	markers := policy.Guard.Markers
	if len(markers) == 0 {
		markers = DefaultGuardMarkers
	}
	for _, m := range markers {
		if containsMarker(doc.folded, m) {
			return true
		}
	}
	for _, r := range policy.Rules {
		if r.IsFallback() {
			continue
		}
		if ok, err := matches(r.Predicate, doc); err == nil && ok {
			return true
		}
	}
	return false
}
