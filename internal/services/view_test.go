package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The absent-vs-empty rule is part of the wire contract: a post or user with
// no children must serialize the collection as a missing key, never as [].

func TestPostView_EmptyCommentsOmitted(t *testing.T) {
	view := PostView{
		Content:   "lonely post",
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(view)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	_, present := raw["comments"]
	assert.False(t, present, "empty comments must be absent, not []")
	assert.EqualValues(t, 0, raw["likes"], "like count is always present")
}

func TestPostView_PopulatedCommentsPresent(t *testing.T) {
	view := PostView{
		Content:   "discussed post",
		CreatedAt: time.Now(),
		Comments: []CommentView{
			{Content: "first", CreatedAt: time.Now()},
			{Content: "second", CreatedAt: time.Now()},
		},
		Likes: 3,
	}

	data, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded PostView
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Comments, 2)
	assert.Equal(t, "first", decoded.Comments[0].Content)
}

func TestUserView_EmptyCollectionsOmitted(t *testing.T) {
	view := UserView{
		ID:       uuid.New(),
		Username: "zeerak",
		Email:    "zeerak@example.com",
	}

	data, err := json.Marshal(view)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, field := range []string{"posts", "comments", "following", "followers"} {
		_, present := raw[field]
		assert.False(t, present, "field %q must be absent when empty", field)
	}
	assert.EqualValues(t, 0, raw["likes"])
}

func TestNewPageMeta(t *testing.T) {
	meta := newPageMeta(0, 3, 4)
	assert.Equal(t, 0, meta.CurrentPage)
	assert.Equal(t, int64(4), meta.TotalItems)
	assert.Equal(t, 2, meta.TotalPages)

	meta = newPageMeta(1, 10, 0)
	assert.Equal(t, 0, meta.TotalPages)

	meta = newPageMeta(0, 10, 10)
	assert.Equal(t, 1, meta.TotalPages)
}
