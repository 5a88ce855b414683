package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsQualifyingMessage(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"plain chat", "오늘 모임 재밌었어요", false},
		{"english review prefix", "Review: The Remains of the Day", true},
		{"lowercase preview", "preview 이번 달 책", true},
		{"korean review", "리뷰 - 채식주의자", true},
		{"korean preview", "프리뷰) 소년이 온다", true},
		{"decorated with emoji and markdown", "📖✨ **[리뷰]** 작별하지 않는다", true},
		{"quoted prefix", "\"Review\" of Stoner", true},
		{"prefix not at start", "이번 책 review 입니다", false},
		{"reviewer is still a review prefix", "reviewer notes", true},
		{"emoji outside stripped ranges blocks prefix", "🤔 review", false},
		{"long post without prefix", strings.Repeat("책", longFormRunes), true},
		{"just under the long form threshold", strings.Repeat("책", longFormRunes-1), false},
		{"only decoration", "✨✨ *** ✨✨", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQualifyingMessage(tt.content))
		})
	}
}

func TestIsQualifyingMessage_LengthCountsRunesBeforeStripping(t *testing.T) {
	// 998 letters plus two emoji reach the threshold even though stripping would drop below it
	content := strings.Repeat("a", longFormRunes-2) + "😀😀"
	assert.True(t, IsQualifyingMessage(content))
}
