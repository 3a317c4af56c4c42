package toolutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_notebook/internal/engine/artifacts"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"report", "quiz", "audio"}, SplitList([]string{"report, quiz", " ", "audio,"}))
	assert.Nil(t, SplitList(nil))
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []artifacts.Kind
	}{
		{"plain", []string{"report", "Mind-Map"}, []artifacts.Kind{artifacts.KindReport, artifacts.KindMindMap}},
		{"comma", []string{"quiz,flashcards"}, []artifacts.Kind{artifacts.KindQuiz, artifacts.KindFlashcards}},
		{"unknown kept", []string{"podcast"}, []artifacts.Kind{"podcast"}},
		{"all", []string{"report", "ALL"}, artifacts.DefaultRegistry().Kinds()},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKinds(tt.in))
		})
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, time.Duration(0), Seconds(0))
	assert.Equal(t, time.Duration(0), Seconds(-3))
	assert.Equal(t, 90*time.Second, Seconds(90))
}
