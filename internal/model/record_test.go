package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkID_ZeroPadded(t *testing.T) {
	require.Equal(t, "launch_chunk_000", ChunkID("launch", 0))
	require.Equal(t, "launch_chunk_007", ChunkID("launch", 7))
	require.Equal(t, "launch_chunk_042", ChunkID("launch", 42))
	require.Equal(t, "launch_chunk_1000", ChunkID("launch", 1000))
}

func TestRecordIDs_Deterministic(t *testing.T) {
	require.Equal(t, "123_launch_chunk_001", ChunkRecordID("123", ChunkID("launch", 1)))
	require.Equal(t, "123", DocumentRecordID("123"))
}

func TestIngestSummary_Add(t *testing.T) {
	var s IngestSummary
	s.Add(IngestOutcome{Status: IngestInserted})
	s.Add(IngestOutcome{Status: IngestInserted})
	s.Add(IngestOutcome{Status: IngestSkippedExisting})
	s.Add(IngestOutcome{Status: IngestSkippedMissingInput})
	s.Add(IngestOutcome{Status: IngestFailed})

	require.Equal(t, 2, s.Inserted)
	require.Equal(t, 1, s.SkippedExisting)
	require.Equal(t, 1, s.SkippedMissingInput)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 5, s.Total())
}
