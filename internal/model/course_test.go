package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlowMode(t *testing.T) {
	for _, valid := range []string{"sequential", "free-flow", "date", "days"} {
		mode, err := ParseFlowMode(valid)
		require.NoError(t, err)
		assert.Equal(t, CourseFlowMode(valid), mode)
	}

	_, err := ParseFlowMode("freeflow")
	assert.Error(t, err)

	_, err = ParseFlowMode("")
	assert.Error(t, err)
}

func TestParseItemType(t *testing.T) {
	for _, valid := range []string{"lesson", "quiz", "section"} {
		it, err := ParseItemType(valid)
		require.NoError(t, err)
		assert.Equal(t, ItemType(valid), it)
	}

	_, err := ParseItemType("chapter")
	assert.Error(t, err)
}

func TestGatable(t *testing.T) {
	assert.True(t, CourseContentItem{ItemType: ItemLesson}.Gatable())
	assert.True(t, CourseContentItem{ItemType: ItemQuiz}.Gatable())
	assert.False(t, CourseContentItem{ItemType: ItemSection}.Gatable())
}
