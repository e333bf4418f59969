package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureChainTracksCapturedSquares(t *testing.T) {
	var chain CaptureChain
	_, ok := chain.Anchor()
	assert.False(t, ok)
	assert.False(t, chain.ContainsCaptured(pos(3, 2)))

	chain.Record(captureMove(pos(4, 3), pos(2, 1), pos(3, 2)))
	chain.Record(captureMove(pos(2, 1), pos(0, 3), pos(1, 2)))

	anchor, ok := chain.Anchor()
	require.True(t, ok)
	assert.Equal(t, pos(0, 3), anchor)
	assert.Equal(t, 2, chain.Len())
	assert.True(t, chain.ContainsCaptured(pos(3, 2)))
	assert.True(t, chain.ContainsCaptured(pos(1, 2)))
	assert.False(t, chain.ContainsCaptured(pos(2, 1)), "landing squares are not captures")

	chain.Reset()
	assert.Equal(t, 0, chain.Len())
	assert.False(t, chain.ContainsCaptured(pos(3, 2)))
}

func TestCaptureChainNilIsEmpty(t *testing.T) {
	var chain *CaptureChain
	assert.False(t, chain.ContainsCaptured(pos(0, 1)))
	assert.Equal(t, 0, chain.Len())
	assert.Nil(t, chain.Moves())
	_, ok := chain.Anchor()
	assert.False(t, ok)
	assert.NotNil(t, chain.Clone())
}

func TestCaptureChainCloneIsIndependent(t *testing.T) {
	chain := &CaptureChain{}
	chain.Record(captureMove(pos(4, 3), pos(2, 1), pos(3, 2)))

	clone := chain.Clone()
	clone.Record(captureMove(pos(2, 1), pos(0, 3), pos(1, 2)))

	assert.Equal(t, 1, chain.Len())
	assert.Equal(t, 2, clone.Len())

	moves := chain.Moves()
	moves[0] = Move{}
	assert.True(t, chain.ContainsCaptured(pos(3, 2)), "Moves returns a copy")
}
