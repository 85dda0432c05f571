package insight

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

var schemaTmpl = template.Must(template.New("schema").Funcs(template.FuncMap{"json": jsonString}).Parse(`Return exactly this JSON structure. Scores are numbers from 0 to 100.
{
  "sender1Personality": {
    "name": {{json .Sender1}},
    "traits": {
      "extroversion": {"score": 0, "description": ""},
      "emotionalExpression": {"score": 0, "description": ""},
      "humor": {"score": 0, "description": ""},
      "empathy": {"score": 0, "description": ""}
    },
    "summary": ""
  },
  "sender2Personality": {
    "name": {{json .Sender2}},
    "traits": {
      "extroversion": {"score": 0, "description": ""},
      "emotionalExpression": {"score": 0, "description": ""},
      "humor": {"score": 0, "description": ""},
      "empathy": {"score": 0, "description": ""}
    },
    "summary": ""
  },
  "relationshipMetrics": {
    "intimacy": {"score": 0, "description": ""},
    "communication": {"score": 0, "description": ""},
    "trust": {"score": 0, "description": ""},
    "compatibility": {"score": 0, "description": ""}
  },
  "relationshipInsights": {"summary": "", "points": [""]},
  "suggestedTopics": [""],
  "overallAnalysis": {"summary": "", "messageTips": [""]}
}`))

// SchemaDescription is the JSON skeleton the generator is told to fill.
func SchemaDescription(sender1, sender2 string) string {
	var sb strings.Builder
	_ = schemaTmpl.Execute(&sb, struct{ Sender1, Sender2 string }{sender1, sender2})
	return sb.String()
}

// jsonString quotes s as a JSON string without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
