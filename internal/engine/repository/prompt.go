package repository

import (
	"encoding/json"
	"fmt"

	"second-order-engine/internal/entity"
)

// BuildClassifyEventPrompt asks the model to identify the primary
// market-moving event behind a batch of news items.
func BuildClassifyEventPrompt(news []entity.NewsItem) string {
	newsJSON, _ := json.MarshalIndent(news, "", "  ")

	return fmt.Sprintf(`Analyze these recent market news items and identify the PRIMARY market-moving event.

News items:
%s

Identify:
1. The most significant market-moving event
2. Primary ticker affected
3. Event category (earnings, M&A, regulatory, macro, innovation, crisis)
4. Magnitude (1-10 scale)
5. Expected duration of impact in days

Return ONLY valid JSON:
{
  "event_description": "...",
  "primary_ticker": "SYMBOL",
  "category": "...",
  "magnitude": 7,
  "duration_days": 5
}`, string(newsJSON))
}

// BuildCausalMapPrompt asks the model to enumerate second-order effects of
// a primary event, grouped by relationship category.
func BuildCausalMapPrompt(event *entity.PrimaryEvent) string {
	eventJSON, _ := json.MarshalIndent(event, "", "  ")

	return fmt.Sprintf(`You are an expert market analyst specializing in identifying second-order effects.

Primary Event:
%s

Analyze supply chain impacts (suppliers, customers), competitive dynamics
(competitors, substitutes), sector rotations (correlated and inverse names)
and infrastructure/ecosystem dependencies.

For each affected entity provide:
{
  "ticker": "SYMBOL",
  "relationship": "supplier|customer|competitor|ecosystem|infrastructure|partner|correlated|inverse",
  "impact_direction": "positive|negative",
  "impact_magnitude": 0.0,
  "confidence": 0.0,
  "time_lag_days": 0,
  "rationale": "brief explanation"
}

impact_magnitude and confidence are in [0,1]; time_lag_days in [0,30].

Return ONLY valid JSON of the form:
{
  "effects": {
    "<category>": [ ...affected entities... ]
  }
}`, string(eventJSON))
}
