package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-bdd/flags"
)

func TestNewApp(t *testing.T) {
	app := newApp()
	assert.Equal(t, "op-bdd", app.Name)
	assert.Contains(t, app.Version, Version)
	assert.Len(t, app.Flags, len(flags.Flags))
	assert.NotNil(t, app.Action)
	assert.NotNil(t, app.ExitErrHandler)
}

func TestHandleExitErrIgnoresNil(t *testing.T) {
	assert.NotPanics(t, func() { handleExitErr(nil, nil) })
}
