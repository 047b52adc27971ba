package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeRoundTripPreservesEntryOrder(t *testing.T) {
	t.Parallel()

	src := `{"$group":{"_id":"$supplier_name","zeta":{"$sum":1},"alpha":{"$avg":"$unit_price"}}}`
	var n Node
	require.NoError(t, json.Unmarshal([]byte(src), &n))

	out, err := json.Marshal(&n)
	require.NoError(t, err)
	require.Equal(t, src, string(out))
}

func TestNodeDecodeShapes(t *testing.T) {
	t.Parallel()

	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"$limit": 25}`), &n))
	require.Equal(t, KindMapping, n.Kind())
	require.Len(t, n.Entries(), 1)
	require.Equal(t, "$limit", n.Entries()[0].Key)
	require.Equal(t, KindScalar, n.Entries()[0].Value.Kind())
	require.Equal(t, int64(25), n.Entries()[0].Value.ScalarValue())

	var seq Node
	require.NoError(t, json.Unmarshal([]byte(`["$items", 0, null, true, 1.5]`), &seq))
	require.Equal(t, KindSequence, seq.Kind())
	require.Equal(t, 5, seq.Len())
	require.Equal(t, "$items", seq.Items()[0].ScalarValue())
	require.Equal(t, int64(0), seq.Items()[1].ScalarValue())
	require.Nil(t, seq.Items()[2].ScalarValue())
	require.Equal(t, true, seq.Items()[3].ScalarValue())
	require.Equal(t, 1.5, seq.Items()[4].ScalarValue())
}

func TestNodeRejectsTrailingGarbage(t *testing.T) {
	t.Parallel()

	var n Node
	require.Error(t, json.Unmarshal([]byte(`{"$limit": 1} {"$skip": 2}`), &n))
}

func TestPlanDecode(t *testing.T) {
	t.Parallel()

	src := `{
		"pipeline": [
			{"$match": {"calendar_year": 2023}},
			{"$group": {"_id": "$supplier_name", "total": {"$sum": "$total_price"}}}
		],
		"explanation": "total spend per supplier in 2023",
		"columns": [
			{"name": "_id", "type": "TEXT"},
			{"name": "total", "type": "MONEY"}
		]
	}`
	var p Plan
	require.NoError(t, json.Unmarshal([]byte(src), &p))
	require.Equal(t, 2, p.StageCount())
	require.NoError(t, p.CheckColumns())
	require.Equal(t, FieldMoney, p.Columns[1].Type)

	p.Columns[0].Type = "BOGUS"
	require.Error(t, p.CheckColumns())
}
