package kusto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKQLString(t *testing.T) {
	assert.Equal(t, `'plain'`, kqlString("plain"))
	assert.Equal(t, `'it\'s'`, kqlString("it's"))
	assert.Equal(t, `'a\\b'`, kqlString(`a\b`))
}

func TestSampleEntityQuery(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		q, err := sampleEntityQuery(EntityTable, "StormEvents", 10)
		require.NoError(t, err)
		assert.Equal(t, "StormEvents | sample 10", q)
	})

	t.Run("graph splits nodes and edges", func(t *testing.T) {
		q, err := sampleEntityQuery(EntityGraph, "G", 10)
		require.NoError(t, err)
		assert.Equal(t, `let NodeSample = graph('G')
| graph-to-table nodes
| take 5
| project PackedEntity=pack_all(), EntityType='Node';
let EdgeSample = graph('G')
| graph-to-table edges
| take 5
| project PackedEntity=pack_all(), EntityType='Edge';
NodeSample
| union EdgeSample`, q)
	})

	t.Run("graph keeps at least one of each", func(t *testing.T) {
		q, err := sampleEntityQuery(EntityGraph, "G", 1)
		require.NoError(t, err)
		assert.Contains(t, q, "nodes\n| take 1\n")
		assert.Contains(t, q, "edges\n| take 1\n")

		q, err = sampleEntityQuery(EntityGraph, "G", 3)
		require.NoError(t, err)
		assert.Contains(t, q, "nodes\n| take 1\n")
		assert.Contains(t, q, "edges\n| take 2\n")
	})

	t.Run("database unsupported", func(t *testing.T) {
		_, err := sampleEntityQuery(EntityDatabase, "db", 10)
		assert.Error(t, err)
	})
}

func TestDescribeEntityCommand(t *testing.T) {
	tests := []struct {
		t    EntityType
		want string
	}{
		{EntityTable, ".show table T cslschema"},
		{EntityFunction, ".show function T"},
		{EntityMaterializedView, ".show materialized-view T | project Name, SourceTable, Query, LastRun, LastRunResult, IsHealthy, IsEnabled, DocString"},
		{EntityGraph, ".show graph_model T details | project Name, Model"},
	}
	for _, tt := range tests {
		got, err := describeEntityCommand(tt.t, "T")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := describeEntityCommand(EntityDatabase, "T")
	assert.Error(t, err)
}

func TestListEntitiesCommand(t *testing.T) {
	assert.Equal(t, ".show databases | project DatabaseName, DatabaseAccessMode, PrettyName, DatabaseId", listEntitiesCommand(EntityDatabase))
	assert.Equal(t, ".show tables | project-away DatabaseName", listEntitiesCommand(EntityTable))
	assert.Equal(t, ".show materialized-views", listEntitiesCommand(EntityMaterializedView))
	assert.Equal(t, ".show functions", listEntitiesCommand(EntityFunction))
	assert.Equal(t, ".show graph_models | project-away DatabaseName", listEntitiesCommand(EntityGraph))
}

func TestDiffPatternsThreshold(t *testing.T) {
	for in, want := range map[string]string{"": "'~'", "~": "'~'", "0.05": "0.05", " 1.0 ": "1.0"} {
		got, err := diffPatternsThreshold(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"0.01", "2", "abc", "0.1; drop"} {
		_, err := diffPatternsThreshold(in)
		assert.Error(t, err, in)
	}
}

func TestDiffPatternsQuery(t *testing.T) {
	data := struct {
		Table     string
		First     string
		Second    string
		Columns   []string
		Threshold string
	}{"T", "X > 1", "Y < 2", []string{"A", "B"}, "0.1"}

	q, err := render(diffPatternsQuery, data)
	require.NoError(t, err)
	assert.Equal(t, `T
| where (X > 1) or (Y < 2)
| extend AB = iff(Y < 2, 'Anomaly', 'Baseline')
| project A, B, AB
| evaluate diffpatterns(AB, 'Anomaly', 'Baseline', '~', 0.1)`, q)

	data.Columns = nil
	data.Threshold = "'~'"
	q, err = render(diffPatternsQuery, data)
	require.NoError(t, err)
	assert.Equal(t, `T
| where (X > 1) or (Y < 2)
| extend AB = iff(Y < 2, 'Anomaly', 'Baseline')
| evaluate diffpatterns(AB, 'Anomaly', 'Baseline', '~', '~')`, q)
}

func TestShotsQuery(t *testing.T) {
	q, err := render(shotsQuery, struct {
		Endpoint   string
		Prompt     string
		Table      string
		SampleSize int
	}{"https://openai.example/embeddings", "what's up", "Shots", 3})
	require.NoError(t, err)
	assert.Equal(t, `let model_endpoint = 'https://openai.example/embeddings';
let embedded_term = toscalar(evaluate ai_embeddings('what\'s up', model_endpoint));
Shots
| extend similarity = series_cosine_similarity(embedded_term, EmbeddingVector)
| top 3 by similarity
| project similarity, EmbeddingText, AugmentedText`, q)
}

func TestDescribeDatabaseQuery(t *testing.T) {
	q, err := render(describeDatabaseQuery, struct{ Database string }{"Samples"})
	require.NoError(t, err)
	assert.Equal(t, ".show databases entities with (showObfuscatedStrings=true) "+
		"| where DatabaseName == 'Samples' "+
		"| project EntityName, EntityType, Folder, DocString, CslInputSchema, Content, CslOutputSchema", q)
}
