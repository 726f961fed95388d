package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Violation
	}{
		{"I love astronomy and debate", ViolationNone},
		{"hello there, this lesson was great", ViolationNone},
		{"this is SHIT", ViolationProfanity},
		{"so damned hard", ViolationProfanity},
		{"my mother helps me", ViolationFamily},
		{"ping me at 192.168.1.20", ViolationIP},
		{"write to alex@example.com", ViolationEmail},
		{"call 555-123-4567", ViolationPhone},
		{"call (555) 123 4567", ViolationPhone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.text), tt.text)
	}
}

func TestCheckText(t *testing.T) {
	require.NoError(t, CheckText("Aspiring astrophysicist", "bio"))

	err := CheckText("what the hell", "bio")
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "The bio contains inappropriate language")

	err = CheckText("my dad", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "family members in the input")
}

func TestCheckAll(t *testing.T) {
	assert.NoError(t, CheckAll(map[string]string{"name": "Alex", "bio": "Chess"}))
	assert.Error(t, CheckAll(map[string]string{"name": "Alex", "bio": "mail me a@b.io"}))

	// Several bad fields: the first by name is always the one reported.
	fields := map[string]string{"title": "damn", "name": "my mom", "bio": "call 555-123-4567"}
	for i := 0; i < 20; i++ {
		err := CheckAll(fields)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "The bio appears to contain a phone number")
	}
}
