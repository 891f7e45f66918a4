// Package benchmark contains Go benchmarks for the tokenizer, inverted
// index, geospatial primitives, and the full discovery search pipeline,
// measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/BotCoder254/story-discovery/internal/index/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "Sunset over the caldera in Santorini",
	"medium": `Three weeks backpacking through Southeast Asia taught me more about
	        travel than a decade of package holidays. Night buses from Bangkok,
	        street food in Hanoi, island hopping across the Gulf of Thailand.
	        Every border crossing came with its own small adventure and every
	        hostel dorm with a new set of stories from strangers headed the
	        other way.`,
	"long": strings.Repeat(`The trail climbs steadily from the valley floor through
	        stands of ancient beech before breaking out above the tree line. From
	        the ridge the whole massif spreads out in folds of grey rock and late
	        snow. We pitched camp beside a tarn and watched the light drain out of
	        the peaks, then woke before dawn for the final push to the summit.
	        Descending the far side the path drops through alpine meadows thick
	        with gentians toward the refuge and its promise of hot food. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Tokenize(text)
			_ = tokens
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "mountain coastline village harbour sunrise trailhead "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}
