package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStyles(t *testing.T) {
	colored := GetStyles(false)
	assert.True(t, colored.Header.GetBold())

	plain := GetStyles(true)
	assert.False(t, plain.Header.GetBold())
}

func TestNoColorStyles_RenderPassthrough(t *testing.T) {
	s := NoColorStyles()
	assert.Equal(t, "hello", s.Error.Render("hello"))
}
