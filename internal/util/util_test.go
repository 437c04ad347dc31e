package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShaLike(t *testing.T) {
	assert.True(t, ShaLike("2e17ab2c190fc5dfff79e66fc972f015da937f05"))
	assert.False(t, ShaLike("main"))
	assert.False(t, ShaLike("2E17AB2C190FC5DFFF79E66FC972F015DA937F05"))
}

func TestShortSha(t *testing.T) {
	assert.Equal(t, "2e17ab2", ShortSha("2e17ab2c190fc5dfff79e66fc972f015da937f05"))
	assert.Equal(t, "main", ShortSha("main"))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, "", Coalesce())
}

func TestSplitCsv(t *testing.T) {
	assert.Equal(t, []string{"subnet-1", "subnet-2"}, SplitCsv("subnet-1, subnet-2,"))
	assert.Nil(t, SplitCsv(""))
	assert.Nil(t, SplitCsv(" , "))
}
