package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/csps/portal/internal/app"
	_ "github.com/csps/portal/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
