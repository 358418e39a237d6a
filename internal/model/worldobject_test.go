package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandle_Valid(t *testing.T) {
	assert.False(t, InvalidHandle.Valid())
	assert.False(t, Handle(0).Valid())
	assert.True(t, Handle(1).Valid())
	assert.True(t, Handle(0x20000001).Valid())
}

func TestHandle_String(t *testing.T) {
	assert.Equal(t, "0", InvalidHandle.String())
	assert.Equal(t, "268435457", Handle(0x10000001).String())
	assert.Equal(t, "42", fmt.Sprint(Handle(42)))
}
