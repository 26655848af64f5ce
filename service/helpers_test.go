package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chali-ug/chali-be/types"
)

func entryFromJSON(t *testing.T, raw string) types.Entry {
	t.Helper()
	var entry types.Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	return entry
}
