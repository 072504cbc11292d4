package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceName(t *testing.T) {
	assert.Equal(t, "bio.txt", SourceName("/uploads/s1/bio.txt"))
	assert.Equal(t, "notes.md", SourceName("notes.md"))
}

func TestDocument_IsBlank(t *testing.T) {
	assert.True(t, (&Document{Content: ""}).IsBlank())
	assert.True(t, (&Document{Content: " \n\t "}).IsBlank())
	assert.False(t, (&Document{Content: "mitosis"}).IsBlank())
}
