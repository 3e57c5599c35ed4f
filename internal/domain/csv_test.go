package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"questions,option1,option2,option3,option4,option5,answer,explanation,type,section",
		`What is 2+2?,3,4,5,,,2,Basic sum.,1,1`,
		`Capital of France?,Paris,Rome,,,,1,,,`,
	}, "\n")

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "What is 2+2?", records[0].Question)
	assert.Equal(t, []string{"3", "4", "5"}, records[0].Options)
	assert.Equal(t, 1, records[0].CorrectIndex, "answer column is 1-based")
	assert.Equal(t, "Basic sum.", records[0].Explanation)
	assert.Equal(t, "1", records[0].Type)
	assert.Equal(t, "1", records[0].Section)

	assert.Equal(t, []string{"Paris", "Rome"}, records[1].Options)
	assert.Equal(t, 0, records[1].CorrectIndex)
	assert.Empty(t, records[1].Explanation)
}

func TestParseCSVSkipsUnusableRows(t *testing.T) {
	input := strings.Join([]string{
		"questions,option1,option2,answer",
		",a,b,1",           // empty question
		"One option?,a,,1", // fewer than two options
		"Kept?,a,b,2",
	}, "\n")

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Kept?", records[0].Question)
	assert.Equal(t, 1, records[0].CorrectIndex)
}

func TestParseCSVClampsAnswer(t *testing.T) {
	input := strings.Join([]string{
		"questions,option1,option2,answer",
		"High?,a,b,9",
		"Low?,a,b,0",
		"Junk?,a,b,maybe",
		"Missing?,a,b,",
	}, "\n")

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, 1, records[0].CorrectIndex, "answers above the option count clamp to the last option")
	assert.Equal(t, 0, records[1].CorrectIndex)
	assert.Equal(t, 0, records[2].CorrectIndex)
	assert.Equal(t, 0, records[3].CorrectIndex)
}

func TestParseCSVTolerantOfColumnOrderAndCase(t *testing.T) {
	input := strings.Join([]string{
		"Answer,OPTION2,option1,Questions",
		"2,b,a,Reordered?",
	}, "\n")

	records, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Reordered?", records[0].Question)
	assert.Equal(t, []string{"a", "b"}, records[0].Options)
	assert.Equal(t, 1, records[0].CorrectIndex)
}

func TestParseCSVHeaderErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = ParseCSV(strings.NewReader("foo,bar\n1,2"))
	assert.ErrorIs(t, err, ErrMissingHeader)
}
