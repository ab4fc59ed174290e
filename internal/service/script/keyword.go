package script

import (
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// MaxKeywordWords 图片检索关键词最多保留的词数
const MaxKeywordWords = 2

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true, "of": true,
	"to": true, "in": true, "on": true, "at": true, "by": true, "for": true, "with": true,
	"from": true, "into": true, "about": true, "as": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "there": true, "their": true, "they": true,
	"he": true, "she": true, "his": true, "her": true, "we": true, "you": true, "your": true,
	"our": true, "has": true, "have": true, "had": true, "do": true, "does": true, "did": true,
	"not": true, "no": true, "can": true, "could": true, "will": true, "would": true, "may": true,
	"might": true, "also": true, "than": true, "then": true, "very": true, "more": true, "most": true,
	"such": true, "which": true, "who": true, "what": true, "when": true, "where": true, "how": true,
	"why": true, "all": true, "some": true, "many": true, "much": true, "even": true, "just": true,
	"over": true, "after": true, "before": true, "today": true, "every": true, "each": true,
}

// KeywordExtractor 模型没给关键词时从句子里本地提取
type KeywordExtractor struct {
	segmenter *gse.Segmenter
}

// NewKeywordExtractor 初始化 gse 分词器；失败时退化为按空白切词
func NewKeywordExtractor() *KeywordExtractor {
	var segmenter *gse.Segmenter
	seg, err := gse.New()
	if err == nil {
		segmenter = &seg
	}
	return &KeywordExtractor{segmenter: segmenter}
}

func (k *KeywordExtractor) tokens(sentence string) []string {
	if k == nil || k.segmenter == nil {
		return strings.Fields(sentence)
	}
	return k.segmenter.Cut(sentence, true)
}

// Extract 取句中最长的两个实词，保持原顺序
func (k *KeywordExtractor) Extract(sentence string) string {
	type cand struct {
		word string
		pos  int
	}

	var cands []cand
	seen := map[string]bool{}
	for i, tok := range k.tokens(sentence) {
		w := strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if w == "" || stopWords[w] || seen[w] {
			continue
		}
		if len([]rune(w)) < 3 && !hasHan(w) {
			continue
		}
		seen[w] = true
		cands = append(cands, cand{word: w, pos: i})
	}
	if len(cands) == 0 {
		return ""
	}

	// 选出最长的 MaxKeywordWords 个，同长度时靠前的优先
	picked := make([]bool, len(cands))
	for n := 0; n < MaxKeywordWords && n < len(cands); n++ {
		best := -1
		for i, c := range cands {
			if picked[i] {
				continue
			}
			if best < 0 || len([]rune(c.word)) > len([]rune(cands[best].word)) {
				best = i
			}
		}
		picked[best] = true
	}

	words := make([]string, 0, MaxKeywordWords)
	for i, c := range cands {
		if picked[i] {
			words = append(words, c.word)
		}
	}
	return strings.Join(words, " ")
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// LimitKeyword 关键词截断到 MaxKeywordWords 个词
func LimitKeyword(kw string) string {
	fields := strings.Fields(kw)
	if len(fields) > MaxKeywordWords {
		fields = fields[:MaxKeywordWords]
	}
	return strings.Join(fields, " ")
}
