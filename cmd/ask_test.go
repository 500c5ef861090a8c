package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodewee/docrag/pkg/rag"
)

type scriptedAsker struct {
	questions []string
}

func (s *scriptedAsker) Ask(_ context.Context, q string) (*rag.Answer, error) {
	s.questions = append(s.questions, q)
	if q == "fail" {
		return nil, errors.New("model unavailable")
	}
	return &rag.Answer{Text: "answer to " + q}, nil
}

func TestRunREPL(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		wantQuestions []string
		wantOutput    []string
	}{
		{
			name:          "answers until quit",
			input:         "How many boats?\n\nQUIT\nnever asked\n",
			wantQuestions: []string{"How many boats?"},
			wantOutput:    []string{"[YOU]: ", "\n[BOT]: answer to How many boats?\n"},
		},
		{
			name:          "errors do not stop the loop",
			input:         "fail\nsecond\nexit\n",
			wantQuestions: []string{"fail", "second"},
			wantOutput:    []string{"Error: model unavailable\n", "[BOT]: answer to second"},
		},
		{
			name:          "ends at EOF",
			input:         "only",
			wantQuestions: []string{"only"},
			wantOutput:    []string{"[BOT]: answer to only"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			a := &scriptedAsker{}

			err := runREPL(context.Background(), strings.NewReader(tc.input), &out, a)
			require.NoError(t, err)

			assert.Equal(t, tc.wantQuestions, a.questions)
			assert.Contains(t, out.String(), "CHATBOT ONLINE")
			for _, want := range tc.wantOutput {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
