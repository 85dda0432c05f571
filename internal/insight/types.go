// Package insight builds the AI analysis prompt and validates the reply.
package insight

// Metric is one scored dimension. Score is 0-100.
type Metric struct {
	Score       *float64 `json:"score" validate:"required"`
	Description string   `json:"description"`
}

// Traits are the four scored personality dimensions of one sender.
type Traits struct {
	Extroversion        *Metric `json:"extroversion" validate:"required"`
	EmotionalExpression *Metric `json:"emotionalExpression" validate:"required"`
	Humor               *Metric `json:"humor" validate:"required"`
	Empathy             *Metric `json:"empathy" validate:"required"`
}

// Personality is the per-sender block.
type Personality struct {
	Name    string  `json:"name"`
	Traits  *Traits `json:"traits" validate:"required"`
	Summary string  `json:"summary"`
}

// RelationshipMetrics are the four pair-level scores.
type RelationshipMetrics struct {
	Intimacy      *Metric `json:"intimacy" validate:"required"`
	Communication *Metric `json:"communication" validate:"required"`
	Trust         *Metric `json:"trust" validate:"required"`
	Compatibility *Metric `json:"compatibility" validate:"required"`
}

// RelationshipInsights is free text plus bullet points.
type RelationshipInsights struct {
	Summary string   `json:"summary"`
	Points  []string `json:"points" validate:"required"`
}

// OverallAnalysis closes the report.
type OverallAnalysis struct {
	Summary     string   `json:"summary"`
	MessageTips []string `json:"messageTips" validate:"required"`
}

// AIInsights is the validated ai-result artifact. Field order is the order
// in which missing fields are reported.
type AIInsights struct {
	Sender1Personality   *Personality          `json:"sender1Personality" validate:"required"`
	Sender2Personality   *Personality          `json:"sender2Personality" validate:"required"`
	RelationshipMetrics  *RelationshipMetrics  `json:"relationshipMetrics" validate:"required"`
	RelationshipInsights *RelationshipInsights `json:"relationshipInsights" validate:"required"`
	SuggestedTopics      []string              `json:"suggestedTopics" validate:"required"`
	OverallAnalysis      *OverallAnalysis      `json:"overallAnalysis" validate:"required"`
}
