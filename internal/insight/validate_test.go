package insight

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

func validReport() map[string]any {
	metric := func(score float64) map[string]any {
		return map[string]any{"score": score, "description": "d"}
	}
	traits := func() map[string]any {
		return map[string]any{
			"extroversion":        metric(70),
			"emotionalExpression": metric(60),
			"humor":               metric(80),
			"empathy":             metric(75),
		}
	}
	return map[string]any{
		"sender1Personality": map[string]any{"name": "Alice", "traits": traits(), "summary": "s"},
		"sender2Personality": map[string]any{"name": "Bob", "traits": traits(), "summary": "s"},
		"relationshipMetrics": map[string]any{
			"intimacy":      metric(65),
			"communication": metric(90),
			"trust":         metric(85),
			"compatibility": metric(70),
		},
		"relationshipInsights": map[string]any{"summary": "s", "points": []string{"p1", "p2"}},
		"suggestedTopics":      []string{"travel"},
		"overallAnalysis":      map[string]any{"summary": "s", "messageTips": []string{}},
	}
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestValidate_Valid(t *testing.T) {
	got, err := Validate(encode(t, validReport()))
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Sender1Personality.Name)
	assert.Equal(t, 85.0, *got.RelationshipMetrics.Trust.Score)
	assert.Empty(t, got.OverallAnalysis.MessageTips)
}

func TestValidate_ProseWrappedMissingTrust(t *testing.T) {
	r := validReport()
	delete(r["relationshipMetrics"].(map[string]any), "trust")
	raw := "Sure! Here is the analysis you asked for:\n```json\n" + encode(t, r) + "\n```\nLet me know {if} you need more."

	_, err := Validate(raw)
	require.Error(t, err)
	assert.True(t, errs.IsCode(err, errs.AIResponseInvalid))
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, "relationshipMetrics.trust", e.Field())
	assert.Contains(t, e.Message(), "relationshipMetrics.trust")
}

func TestValidate_FirstMissingFieldReported(t *testing.T) {
	r := validReport()
	delete(r["sender2Personality"].(map[string]any)["traits"].(map[string]any), "humor")
	delete(r, "suggestedTopics")

	_, err := Validate(encode(t, r))
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.AIResponseInvalid, e.Code())
	assert.Equal(t, "sender2Personality.traits.humor", e.Field())
}

func TestValidate_NullAndMissingScore(t *testing.T) {
	r := validReport()
	r["overallAnalysis"] = nil
	_, err := Validate(encode(t, r))
	e, _ := errs.As(err)
	require.NotNil(t, e)
	assert.Equal(t, "overallAnalysis", e.Field())

	r = validReport()
	r["relationshipMetrics"].(map[string]any)["intimacy"] = map[string]any{"description": "no score"}
	_, err = Validate(encode(t, r))
	e, _ = errs.As(err)
	require.NotNil(t, e)
	assert.Equal(t, "relationshipMetrics.intimacy.score", e.Field())
}

func TestValidate_WrongShape(t *testing.T) {
	r := validReport()
	r["relationshipInsights"].(map[string]any)["points"] = "not an array"

	_, err := Validate(encode(t, r))
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.AIResponseInvalid, e.Code())
	assert.Equal(t, "relationshipInsights.points", e.Field())
}

func TestValidate_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"no json":    "I cannot help with that.",
		"unbalanced": `{"sender1Personality": {`,
		"bad syntax": `{"a": 1,}`,
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Validate(raw)
			assert.True(t, errs.IsCode(err, errs.AIResponseMalformed), "got %v", err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{`x {"a":1} y {"b":2}`, `{"a":1}`, true},
		{`{"s":"brace } inside \" quote"}`, `{"s":"brace } inside \" quote"}`, true},
		{`{"nested":{"k":[1,{"z":0}]}} tail`, `{"nested":{"k":[1,{"z":0}]}}`, true},
		{`{ broken {"ok":true}`, `{"ok":true}`, true},
		{`no braces`, "", false},
	}
	for _, c := range cases {
		got, ok := ExtractJSON(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestSchemaDescription_NamesSenders(t *testing.T) {
	s := SchemaDescription("Alice", "Bob")
	assert.True(t, strings.Contains(s, `"name": "Alice"`))
	assert.True(t, strings.Contains(s, `"name": "Bob"`))
	assert.Contains(t, s, `"trust"`)
}

func TestSchemaDescription_QuotesSenderNames(t *testing.T) {
	name := `Al "Boss" \ <3`
	s := SchemaDescription(name, "Bob")

	var skeleton struct {
		Sender1 struct {
			Name string `json:"name"`
		} `json:"sender1Personality"`
	}
	require.NoError(t, json.Unmarshal([]byte(s[strings.Index(s, "{"):]), &skeleton))
	assert.Equal(t, name, skeleton.Sender1.Name)
}
