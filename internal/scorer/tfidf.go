package scorer

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// maxVocabulary TF-IDF词表上限，防止超长文档导致向量失控
const maxVocabulary = 5000

// tokenize 大小写折叠后按非字母数字切分
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ngrams 返回unigram+bigram词项序列
func ngrams(tokens []string) []string {
	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// tfidfCosine 对两个文档联合构建TF-IDF向量并返回余弦相似度
// 平滑IDF: ln((1+n)/(1+df)) + 1，向量L2归一化后点积
func tfidfCosine(docA, docB string) float64 {
	termsA := ngrams(tokenize(docA))
	termsB := ngrams(tokenize(docB))
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0
	}

	tfA := termCounts(termsA)
	tfB := termCounts(termsB)

	vocab := buildVocabulary(tfA, tfB)

	const nDocs = 2.0
	vecA := make([]float64, len(vocab))
	vecB := make([]float64, len(vocab))
	for i, term := range vocab {
		df := 0.0
		if tfA[term] > 0 {
			df++
		}
		if tfB[term] > 0 {
			df++
		}
		idf := math.Log((1+nDocs)/(1+df)) + 1
		vecA[i] = float64(tfA[term]) * idf
		vecB[i] = float64(tfB[term]) * idf
	}

	return cosine(vecA, vecB)
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

// buildVocabulary 合并两个文档的词项，超限时保留总频次最高的词项
func buildVocabulary(tfA, tfB map[string]int) []string {
	vocab := make([]string, 0, len(tfA)+len(tfB))
	seen := make(map[string]struct{}, len(tfA)+len(tfB))
	for t := range tfA {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			vocab = append(vocab, t)
		}
	}
	for t := range tfB {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			vocab = append(vocab, t)
		}
	}

	if len(vocab) <= maxVocabulary {
		sort.Strings(vocab)
		return vocab
	}

	sort.Slice(vocab, func(i, j int) bool {
		ci := tfA[vocab[i]] + tfB[vocab[i]]
		cj := tfA[vocab[j]] + tfB[vocab[j]]
		if ci != cj {
			return ci > cj
		}
		return vocab[i] < vocab[j]
	})
	vocab = vocab[:maxVocabulary]
	sort.Strings(vocab)
	return vocab
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
