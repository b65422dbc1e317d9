package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-engine/internal/model"
)

func abcd() []model.Option {
	return []model.Option{{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "D"}}
}

func testSet() *model.QuestionSet {
	return &model.QuestionSet{
		Title: "Mock JEE",
		Questions: []model.Question{
			{Index: 0, Subject: "Physics", Text: "q0", Options: abcd(), CorrectAnswer: "A"},
			{Index: 1, Subject: "Physics", Text: "q1", Options: abcd(), CorrectAnswer: "B"},
			{Index: 2, Subject: "Chemistry", Text: "q2", Options: abcd(), CorrectAnswer: "C"},
			{Index: 3, Subject: "Chemistry", Text: "q3", Options: abcd(), CorrectAnswer: "D"},
			{Index: 4, Subject: "Maths", Text: "q4", Options: abcd(), CorrectAnswer: "A"},
		},
	}
}

func assertSummaryInvariant(t *testing.T, n *Navigator) {
	t.Helper()
	assert.Equal(t, n.Count(), n.Summary().Total(), "summary buckets must add up to question count")
}

func TestNew_AllNotVisited(t *testing.T) {
	n := New(testSet())

	assert.Equal(t, -1, n.Current())
	for _, st := range n.Statuses() {
		assert.Equal(t, model.StatusNotVisited, st)
	}
	assert.Equal(t, model.StatusSummary{NotVisited: 5}, n.Summary())
}

func TestVisit(t *testing.T) {
	n := New(testSet())

	require.NoError(t, n.Visit(2))
	assert.Equal(t, 2, n.Current())

	st, err := n.Status(2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVisited, st)
	assertSummaryInvariant(t, n)
}

func TestVisit_OutOfRangeLeavesCurrent(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.Visit(1))

	for _, idx := range []int{-1, n.Count()} {
		err := n.Visit(idx)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.Equal(t, 1, n.Current())
	}
}

func TestVisit_KeepsAnsweredAndMarked(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.SelectOption(0, "A"))
	require.NoError(t, n.MarkForReview(1))

	require.NoError(t, n.Visit(0))
	require.NoError(t, n.Visit(1))

	st0, _ := n.Status(0)
	st1, _ := n.Status(1)
	assert.Equal(t, model.StatusAnswered, st0)
	assert.Equal(t, model.StatusMarked, st1)

	sel, ok := n.Answers().Selected(0)
	assert.True(t, ok)
	assert.Equal(t, "A", sel)
}

func TestMarkThenSelect_AnsweredAndMarked(t *testing.T) {
	n := New(testSet())

	require.NoError(t, n.MarkForReview(2))
	require.NoError(t, n.SelectOption(2, "B"))

	st, err := n.Status(2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAnsweredMarked, st)
	assert.True(t, st.IsAnswered())
	assert.True(t, st.IsMarked())
	assertSummaryInvariant(t, n)
}

func TestSelectOption_Invalid(t *testing.T) {
	n := New(testSet())

	require.ErrorIs(t, n.SelectOption(0, "E"), ErrInvalidOption)
	require.ErrorIs(t, n.SelectOption(0, ""), ErrInvalidOption)
	require.ErrorIs(t, n.SelectOption(9, "A"), ErrIndexOutOfRange)
	assert.Empty(t, n.Answers())
}

func TestClear(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.SelectOption(3, "C"))

	require.NoError(t, n.Clear(3))

	st, _ := n.Status(3)
	assert.Equal(t, model.StatusVisited, st)
	_, ok := n.Answers().Selected(3)
	assert.False(t, ok)
}

func TestClear_KeepsReviewFlag(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.MarkForReview(3))
	require.NoError(t, n.SelectOption(3, "C"))

	require.NoError(t, n.Clear(3))

	st, _ := n.Status(3)
	assert.Equal(t, model.StatusMarked, st)
}

func TestUnmark(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.MarkForReview(4))
	require.NoError(t, n.Unmark(4))

	st, _ := n.Status(4)
	assert.Equal(t, model.StatusVisited, st)
}

func TestSummary_Buckets(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.SelectOption(0, "A"))
	require.NoError(t, n.MarkForReview(1))
	require.NoError(t, n.Visit(2))
	// Answered and marked counts as answered.
	require.NoError(t, n.MarkForReview(3))
	require.NoError(t, n.SelectOption(3, "D"))

	assert.Equal(t, model.StatusSummary{
		Answered:    2,
		MarkedOnly:  1,
		NotAnswered: 1,
		NotVisited:  1,
	}, n.Summary())
	assertSummaryInvariant(t, n)
}

func TestNextPrevious(t *testing.T) {
	n := New(testSet())

	require.NoError(t, n.Next())
	assert.Equal(t, 0, n.Current())
	require.NoError(t, n.Next())
	assert.Equal(t, 1, n.Current())
	require.NoError(t, n.Previous())
	assert.Equal(t, 0, n.Current())

	require.ErrorIs(t, n.Previous(), ErrIndexOutOfRange)
	assert.Equal(t, 0, n.Current())

	require.NoError(t, n.Visit(4))
	require.ErrorIs(t, n.Next(), ErrIndexOutOfRange)
	assert.Equal(t, 4, n.Current())
}

func TestJumpToSubject(t *testing.T) {
	n := New(testSet())

	require.NoError(t, n.JumpToSubject("Chemistry"))
	assert.Equal(t, 2, n.Current())

	require.ErrorIs(t, n.JumpToSubject("Biology"), ErrUnknownSubject)
	assert.Equal(t, 2, n.Current())
}

func TestAnswers_IsCopy(t *testing.T) {
	n := New(testSet())
	require.NoError(t, n.SelectOption(0, "A"))

	answers := n.Answers()
	answers[0] = "B"
	answers[1] = "C"

	sel, _ := n.Answers().Selected(0)
	assert.Equal(t, "A", sel)
	_, ok := n.Answers().Selected(1)
	assert.False(t, ok)
}
