package search

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/Nhatlinh9898/novelvip/internal/outline"
)

// titleWeight is how much a title hit counts against a body hit.
const titleWeight = 3

// snippetRadius is the number of runes kept on each side of the first match.
const snippetRadius = 32

// Index is an in-memory inverted index over outline entries. It is safe
// for concurrent use.
type Index struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string

	// terms maps a folded term to document id to hit counts.
	terms map[string]map[string]hits
}

type hits struct {
	title int
	body  int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		docs:  make(map[string]Document),
		terms: make(map[string]map[string]hits),
	}
}

// Add indexes doc, replacing any earlier document with the same ID.
func (idx *Index) Add(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.add(doc)
}

func (idx *Index) add(doc Document) {
	if _, ok := idx.docs[doc.ID]; ok {
		idx.remove(doc.ID)
	}
	idx.docs[doc.ID] = doc
	idx.order = append(idx.order, doc.ID)

	for _, tok := range tokenize(doc.Title) {
		h := idx.posting(tok.term, doc.ID)
		h.title++
		idx.terms[tok.term][doc.ID] = h
	}
	for _, field := range []string{doc.Summary, doc.Content} {
		for _, tok := range tokenize(field) {
			h := idx.posting(tok.term, doc.ID)
			h.body++
			idx.terms[tok.term][doc.ID] = h
		}
	}
}

func (idx *Index) posting(term, id string) hits {
	byDoc, ok := idx.terms[term]
	if !ok {
		byDoc = make(map[string]hits)
		idx.terms[term] = byDoc
	}
	return byDoc[id]
}

// Remove drops a document. Unknown ids are ignored.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.remove(id)
}

func (idx *Index) remove(id string) {
	if _, ok := idx.docs[id]; !ok {
		return
	}
	delete(idx.docs, id)
	for i, v := range idx.order {
		if v == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
	for term, byDoc := range idx.terms {
		delete(byDoc, id)
		if len(byDoc) == 0 {
			delete(idx.terms, term)
		}
	}
}

// Reindex replaces the whole index with the entries of root.
func (idx *Index) Reindex(root outline.Node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs = make(map[string]Document)
	idx.order = nil
	idx.terms = make(map[string]map[string]hits)
	for _, doc := range Documents(root) {
		idx.add(doc)
	}
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search returns the documents matching every term of query, best first.
// The last term also matches as a prefix so results can follow typing.
func (idx *Index) Search(query string, opts Options) ([]Result, error) {
	qterms := terms(query)
	if len(qterms) == 0 {
		return nil, ErrEmptyQuery
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultOptions().Limit
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var scores map[string]int
	matched := make([][]string, len(qterms))
	for i, q := range qterms {
		candidates := []string{q}
		if i == len(qterms)-1 {
			candidates = idx.prefixed(q)
		}
		matched[i] = candidates

		termScores := make(map[string]int)
		for _, t := range candidates {
			for id, h := range idx.terms[t] {
				termScores[id] += titleWeight*h.title + h.body
			}
		}
		if scores == nil {
			scores = termScores
			continue
		}
		for id, s := range scores {
			if ts, ok := termScores[id]; ok {
				scores[id] = s + ts
			} else {
				delete(scores, id)
			}
		}
	}

	best := 0
	for _, s := range scores {
		best = max(best, s)
	}
	if best == 0 {
		return nil, nil
	}

	rank := make(map[string]int, len(idx.order))
	for i, id := range idx.order {
		rank[id] = i
	}

	results := make([]Result, 0, len(scores))
	for id, s := range scores {
		doc := idx.docs[id]
		if opts.Level != nil && doc.Level != *opts.Level {
			continue
		}
		score := float64(s) / float64(best)
		if score < opts.MinScore {
			continue
		}
		results = append(results, Result{
			Document: doc,
			Score:    score,
			Snippet:  snippet(doc, matched),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return rank[results[i].Document.ID] < rank[results[j].Document.ID]
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// prefixed returns every indexed term starting with prefix.
func (idx *Index) prefixed(prefix string) []string {
	var out []string
	for t := range idx.terms {
		if strings.HasPrefix(t, prefix) {
			out = append(out, t)
		}
	}
	return out
}

// snippet cuts a fragment of the content, or the summary when the content
// has no hit, around the first matched term.
func snippet(doc Document, matched [][]string) string {
	want := make(map[string]bool)
	for _, group := range matched {
		for _, t := range group {
			want[t] = true
		}
	}

	for _, field := range []string{doc.Content, doc.Summary} {
		if s, ok := highlight(field, want); ok {
			return s
		}
	}
	return ""
}

func highlight(text string, want map[string]bool) (string, bool) {
	runes := []rune(text)
	var hitsAt []token
	for _, tok := range tokenize(text) {
		if want[tok.term] {
			hitsAt = append(hitsAt, tok)
		}
	}
	if len(hitsAt) == 0 {
		return "", false
	}

	start := max(0, hitsAt[0].start-snippetRadius)
	end := min(len(runes), hitsAt[0].end+snippetRadius)

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	pos := start
	for _, h := range hitsAt {
		if h.start < start || h.end > end {
			continue
		}
		b.WriteString(string(runes[pos:h.start]))
		b.WriteString(DefaultHighlightStart)
		b.WriteString(string(runes[h.start:h.end]))
		b.WriteString(DefaultHighlightEnd)
		pos = h.end
	}
	b.WriteString(string(runes[pos:end]))
	if end < len(runes) {
		b.WriteString("…")
	}
	return strings.Join(strings.Fields(b.String()), " "), true
}

// token is a folded term with its rune span in the original text.
type token struct {
	term       string
	start, end int
}

// tokenize splits text into folded terms. Folding maps each rune to exactly
// one rune, so spans index the original text.
func tokenize(text string) []token {
	var out []token
	var cur []rune
	start := 0
	i := 0
	flush := func() {
		if len(cur) > 0 {
			out = append(out, token{term: string(cur), start: start, end: i})
			cur = cur[:0]
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if len(cur) == 0 {
				start = i
			}
			cur = append(cur, fold(r))
		} else {
			flush()
		}
		i++
	}
	flush()
	return out
}

func terms(text string) []string {
	toks := tokenize(text)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.term)
	}
	return out
}

// fold lowercases r and strips its diacritics.
func fold(r rune) rune {
	switch r {
	case 'đ', 'Đ':
		return 'd'
	}
	if r < unicode.MaxASCII {
		return unicode.ToLower(r)
	}
	for _, base := range norm.NFD.String(string(r)) {
		return unicode.ToLower(base)
	}
	return unicode.ToLower(r)
}
