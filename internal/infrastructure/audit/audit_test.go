package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/generation"
)

func TestLedgerCommittedWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Committed("req-1", generation.Number(3))

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "req-1", entry["request_id"])
	require.Equal(t, float64(3), entry["generation"])
	require.Equal(t, "committed", entry["event"])
}

func TestLedgerAbortedIncludesReason(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Aborted("req-2", generation.None, "vlan id out of range")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "vlan id out of range", entry["reason"])
	require.Equal(t, "aborted", entry["event"])
}
