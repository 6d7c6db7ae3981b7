package database

import (
	"testing"

	modelspkg "nestling/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesCalendar(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.PregnancyCalendar); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include PregnancyCalendar")
}

func TestPersistentModels_LookupsPrecedeOwners(t *testing.T) {
	index := map[string]int{}
	for i, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.TypeUser:
			index["type_user"] = i
		case *modelspkg.User:
			index["user"] = i
		case *modelspkg.Article:
			index["article"] = i
		case *modelspkg.Like:
			index["like"] = i
		}
	}
	require.Less(t, index["type_user"], index["user"])
	require.Less(t, index["user"], index["article"])
	require.Less(t, index["article"], index["like"])
}
