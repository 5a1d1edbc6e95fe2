package codec

import (
	"testing"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func everyBlock(t *testing.T) *domain.Graph {
	t.Helper()
	b := dsl.New()
	b.Add("lang").Language("en", "English", "es", "Español").On("en", "welcome").On("es", "welcome").At(0, 0)
	b.Add("welcome").Prompt("Welcome").Summary("greeting").Go("menu").At(120.5, 40)
	b.Add("menu").Key("1", "Sales", "2", "Support", "0", "Operator", "#", "Repeat").Summary("main").
		On("1", "lookup").On("2", "rec").On("0", "ops").On("#", "menu")
	b.Add("lookup").Endpoint("GET", "https://crm.example/lookup").Conditions("vip").On("200", "vip").Go("queue")
	b.Add("vip").Menu("vip menu").Conditions("x").Go("bye")
	b.Add("rec").Record().Summary("leave a message").Go("vm")
	b.Add("vm").Voicemail("100")
	b.Add("ops").Transfer("SIP/ops").Conditions("office-hours")
	b.Add("queue").Queue("support").Summary("support queue")
	b.Add("bye").Hangup().Name("Goodbye")
	b.Start("lang")
	return b.MustBuild()
}

func TestRoundTrip_Document(t *testing.T) {
	g := everyBlock(t)
	back, err := Deserialize(Serialize(g))
	require.NoError(t, err)
	assert.True(t, domain.Equal(g, back))
}

func TestRoundTrip_JSON(t *testing.T) {
	g := everyBlock(t)
	data, err := MarshalJSON(g)
	require.NoError(t, err)

	back, err := UnmarshalJSON(data)
	require.NoError(t, err)
	assert.True(t, domain.Equal(g, back))

	again, err := MarshalJSON(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "encoding is stable")
}

func TestRoundTrip_YAML(t *testing.T) {
	g := everyBlock(t)
	data, err := MarshalYAML(g)
	require.NoError(t, err)

	back, err := Decode(data, "")
	require.NoError(t, err)
	assert.True(t, domain.Equal(g, back))
}

func TestRoundTrip_AfterEdits(t *testing.T) {
	g := domain.NewGraph()
	p, _ := g.AddNode(domain.BlockPrompt, domain.PromptConfig{AudioURL: "welcome.wav"})
	k, _ := g.AddNode(domain.BlockKey, nil)
	h, _ := g.AddNode(domain.BlockHangup, nil)
	require.NoError(t, g.UpdateNodeConfig(k.ID, domain.KeyConfig{Options: domain.NewOptions("1", "Bye")}))
	_, _ = g.Connect(p.ID, k.ID, "")
	_, _ = g.Connect(k.ID, h.ID, "1")
	g.RemoveNode(h.ID)

	data, err := MarshalJSON(g)
	require.NoError(t, err)
	back, err := UnmarshalJSON(data)
	require.NoError(t, err)
	assert.True(t, domain.Equal(g, back))
}

func TestDocumentShape(t *testing.T) {
	b := dsl.New()
	b.Add("K1").Key("2", "Support", "1", "Sales").On("1", "H1")
	b.Add("H1").Hangup()

	data, err := MarshalJSON(b.MustBuild())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nodes": [
			{"id": "K1", "blockType": "key", "name": "key-1", "config": {"options": {"1": "Sales", "2": "Support"}}, "position": {"x": 0, "y": 0}},
			{"id": "H1", "blockType": "hangup", "name": "hangup-2", "config": {}, "position": {"x": 0, "y": 0}}
		],
		"edges": [
			{"id": "K1:1->H1", "source": "K1", "target": "H1", "sourceHandle": "1"}
		]
	}`, string(data))
}

func TestDecode_UnknownBlockType(t *testing.T) {
	in := `{
		"nodes": [
			{"id": "a", "blockType": "prompt", "name": "hi", "config": {"message": "hi"}, "position": {"x": 1, "y": 2}},
			{"id": "b", "blockType": "sms", "name": "text me", "config": {"to": "+1555", "retry": {"count": 2}}, "position": {"x": 0, "y": 0}}
		],
		"edges": [{"id": "e", "source": "a", "target": "b"}]
	}`
	g, err := UnmarshalJSON([]byte(in))
	require.NoError(t, err)

	n, ok := g.Node("b")
	require.True(t, ok)
	assert.Equal(t, domain.BlockUnknown, n.BlockType)
	assert.Equal(t, "sms", n.Tag())

	out, err := MarshalJSON(g)
	require.NoError(t, err)
	back, err := UnmarshalJSON(out)
	require.NoError(t, err)
	assert.True(t, domain.Equal(g, back))
	assert.Contains(t, string(out), `"blockType": "sms"`)
}

func TestDecode_YAMLDigitKeys(t *testing.T) {
	in := `
nodes:
  - id: K1
    blockType: key
    name: menu
    config:
      options:
        1: Sales
        "2": Support
  - id: X1
    blockType: fax
    config:
      pages:
        1: cover
edges:
  - source: K1
    target: K1
    sourceHandle: 1
`
	g, err := UnmarshalYAML([]byte(in))
	require.NoError(t, err)

	n, _ := g.Node("K1")
	assert.Equal(t, domain.NewOptions("1", "Sales", "2", "Support"), domain.OptionsOf(n.Config))

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, "1", edges[0].SourceHandle)
	assert.Equal(t, "K1:1->K1", edges[0].ID, "missing edge ids are derived")

	_, err = MarshalJSON(g)
	assert.NoError(t, err, "raw YAML fields of unknown blocks re-encode as JSON")
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not an object", `[1, 2]`},
		{"scalar", `"flow"`},
		{"yaml list", "- a\n- b\n"},
		{"broken json", `{"nodes": [`},
		{"node without id", `{"nodes": [{"blockType": "hangup"}]}`},
		{"node without blockType", `{"nodes": [{"id": "a"}]}`},
		{"duplicate id", `{"nodes": [{"id": "a", "blockType": "hangup"}, {"id": "a", "blockType": "hangup"}]}`},
		{"config not an object", `{"nodes": [{"id": "a", "blockType": "prompt", "config": "hello"}]}`},
		{"config field wrong type", `{"nodes": [{"id": "a", "blockType": "prompt", "config": {"message": 5}}]}`},
		{"options as text", `{"nodes": [{"id": "a", "blockType": "key", "config": {"options": "1:Sales,2:Support"}}]}`},
		{"edge without target", `{"nodes": [], "edges": [{"id": "e", "source": "a"}]}`},
		{"nodes not a list", `{"nodes": {"id": "a"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Decode([]byte(tt.in), "")
			assert.ErrorIs(t, err, domain.ErrMalformedDocument)
			assert.Nil(t, g)
		})
	}
}

func TestDecode_DanglingEdgesAreKept(t *testing.T) {
	g, err := UnmarshalJSON([]byte(`{"nodes": [{"id": "a", "blockType": "prompt", "config": {"message": "x"}}], "edges": [{"id": "e", "source": "a", "target": "ghost"}]}`))
	require.NoError(t, err)
	assert.Len(t, g.Edges(), 1)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("flows/main.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("main.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("main.json"))
	assert.Equal(t, FormatJSON, Sniff([]byte("  \n{}")))
	assert.Equal(t, FormatYAML, Sniff([]byte("nodes: []")))

	_, err := DecodeDocument([]byte("{}"), "toml")
	assert.Error(t, err)
}
