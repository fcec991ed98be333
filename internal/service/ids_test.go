package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIDsSortInCreationOrder(t *testing.T) {
	prev := newID()
	for i := 0; i < 1000; i++ {
		next := newID()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestMessagePairKeepsConversationOrder(t *testing.T) {
	// a chat turn stamps both rows with the same unix second, so the id is
	// the only tiebreak when reading the chat back
	for i := 0; i < 1000; i++ {
		userID := newID()
		assistantID := newID()
		require.Less(t, userID, assistantID)
	}
}
