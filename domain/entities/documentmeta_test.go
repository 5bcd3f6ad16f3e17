package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph/engine/domain/valueobjects"
)

func TestNewDocumentMetaValidation(t *testing.T) {
	_, err := NewDocumentMeta(NewDocumentMetaParams{ContentHash: "", Ontology: "general"})
	assert.Error(t, err)

	_, err = NewDocumentMeta(NewDocumentMetaParams{ContentHash: "abc123", Ontology: ""})
	assert.Error(t, err)

	jobID := valueobjects.NewJobID()
	d, err := NewDocumentMeta(NewDocumentMetaParams{
		ContentHash: "abc123",
		Ontology:    "general",
		Filename:    "notes.txt",
		SourceType:  SourceTypeFile,
		IngestedBy:  "cli",
		JobID:       jobID,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", d.ID().String())
	assert.Equal(t, 1, d.Version())
	assert.Equal(t, 0, d.SourceCount())

	_, ok := d.Supersedes()
	assert.False(t, ok)
	_, ok = d.SupersededBy()
	assert.False(t, ok)
}

func TestDocumentMetaRecordSourceCount(t *testing.T) {
	d, err := NewDocumentMeta(NewDocumentMetaParams{ContentHash: "abc123", Ontology: "general"})
	require.NoError(t, err)

	d.RecordSourceCount(5)
	assert.Equal(t, 5, d.SourceCount())
	assert.Equal(t, 2, d.Version())
}

func TestDocumentMetaMarkSupersedes(t *testing.T) {
	d, err := NewDocumentMeta(NewDocumentMetaParams{ContentHash: "newhash", Ontology: "general"})
	require.NoError(t, err)

	d.MarkSupersedes("oldhash")
	prior, ok := d.Supersedes()
	assert.True(t, ok)
	assert.Equal(t, "oldhash", prior)
	assert.Equal(t, 2, d.Version())
}

func TestDocumentMetaMarkSupersededByRaisesEvent(t *testing.T) {
	d, err := NewDocumentMeta(NewDocumentMetaParams{ContentHash: "oldhash", Ontology: "general"})
	require.NoError(t, err)

	d.MarkSupersededBy("newhash")

	next, ok := d.SupersededBy()
	assert.True(t, ok)
	assert.Equal(t, "newhash", next)

	evts := d.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, "document.superseded", evts[0].EventType())
	assert.Equal(t, "oldhash", evts[0].AggregateID())

	d.MarkEventsAsCommitted()
	assert.Empty(t, d.GetUncommittedEvents())
}

func TestReconstructDocumentMeta(t *testing.T) {
	supersedes := "priorhash"
	d, err := ReconstructDocumentMeta(
		"abc123", "general", "notes.txt", SourceTypeFile, "/tmp/notes.txt", "host1",
		time.Now(), "cli", valueobjects.NewJobID(), 3, 2, &supersedes, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, 3, d.SourceCount())
	assert.Equal(t, 2, d.Version())
	prior, ok := d.Supersedes()
	assert.True(t, ok)
	assert.Equal(t, "priorhash", prior)
	assert.Empty(t, d.GetUncommittedEvents())
}
