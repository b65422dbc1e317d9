package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-engine/internal/model"
)

func TestLoadQuestionSet_YAML(t *testing.T) {
	set, err := LoadQuestionSet(filepath.Join("testdata", "tryout.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Tryout UTBK 1", set.Title)
	assert.Equal(t, 90, set.DurationMinutes)
	require.Equal(t, 4, set.Len())
	for i, q := range set.Questions {
		assert.Equal(t, i, q.Index, "indices are assigned by position")
	}
	require.NotNil(t, set.Questions[3].MarksCorrect)
	assert.Equal(t, 5.0, *set.Questions[3].MarksCorrect)
	assert.Equal(t, -2.0, *set.Questions[3].MarksIncorrect)

	blocks, err := set.SubjectBlocks()
	require.NoError(t, err)
	assert.Equal(t, []model.SubjectBlock{
		{Subject: "Fisika", Start: 0, End: 2},
		{Subject: "Kimia", Start: 2, End: 4},
	}, blocks)
}

func TestLoadQuestionSet_JSON(t *testing.T) {
	set, err := LoadQuestionSet(filepath.Join("testdata", "tryout.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "B", set.Questions[1].CorrectAnswer)
}

func TestLoadQuestionSet_MissingFile(t *testing.T) {
	_, err := LoadQuestionSet(filepath.Join("testdata", "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseQuestionSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		doc     string
		wantErr error
	}{
		{
			name:    "empty question list",
			format:  FormatYAML,
			doc:     "title: x\nquestions: []\n",
			wantErr: model.ErrEmptyQuestionSet,
		},
		{
			name:    "unknown field",
			format:  FormatYAML,
			doc:     "title: x\nsecret: 1\nquestions: []\n",
			wantErr: model.ErrInvalidQuestionSet,
		},
		{
			name:    "answer not among options",
			format:  FormatYAML,
			doc:     "questions:\n  - subject: S\n    text: t\n    options: [{key: A}, {key: B}]\n    correct_answer: C\n",
			wantErr: model.ErrInvalidQuestionSet,
		},
		{
			name:    "missing subject",
			format:  FormatYAML,
			doc:     "questions:\n  - text: t\n    correct_answer: A\n",
			wantErr: model.ErrInvalidQuestionSet,
		},
		{
			name:    "subject block interrupted",
			format:  FormatJSON,
			doc:     `{"questions":[{"subject":"A","text":"1","correct_answer":"x"},{"subject":"B","text":"2","correct_answer":"x"},{"subject":"A","text":"3","correct_answer":"x"}]}`,
			wantErr: model.ErrInvalidQuestionSet,
		},
		{
			name:    "two json documents",
			format:  FormatJSON,
			doc:     `{"questions":[]} {}`,
			wantErr: model.ErrInvalidQuestionSet,
		},
		{
			name:    "two yaml documents",
			format:  FormatYAML,
			doc:     "title: a\n---\ntitle: b\n",
			wantErr: model.ErrInvalidQuestionSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestionSet([]byte(tt.doc), tt.format)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPrepare_KeepsExplicitIndices(t *testing.T) {
	set := &model.QuestionSet{Questions: []model.Question{
		{Index: 1, Subject: "S", Text: "a", CorrectAnswer: "A"},
		{Index: 0, Subject: "S", Text: "b", CorrectAnswer: "A"},
	}}
	assert.ErrorIs(t, Prepare(set), model.ErrInvalidQuestionSet)
}

func TestLoadAnswers(t *testing.T) {
	answers, err := LoadAnswers(filepath.Join("testdata", "answers.yaml"))
	require.NoError(t, err)
	assert.Equal(t, model.AnswerRecord{0: "B", 1: "C", 3: "D"}, answers)
}

func TestParseAnswers(t *testing.T) {
	answers, err := ParseAnswers([]byte(`{"0":"A","2":"  ","4":"C"}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, model.AnswerRecord{0: "A", 4: "C"}, answers)

	_, err = ParseAnswers([]byte(`{"-1":"A"}`), FormatJSON)
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatOf("set.JSON"))
	assert.Equal(t, FormatYAML, FormatOf("set.yml"))
	assert.Equal(t, FormatYAML, FormatOf("set"))
}
