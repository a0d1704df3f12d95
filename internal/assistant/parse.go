package assistant

import (
	"encoding/json"
	"errors"
	"strings"
)

var errEmptyReply = errors.New("assistant returned an empty reply")

const fallbackAnswer = "Lamento, mas não foi possível processar a tua pergunta neste momento."

func fallbackAnalysis() Analysis {
	return Analysis{
		Insights:        []string{"Não foi possível gerar análises neste momento."},
		Recommendations: []string{"Tenta novamente mais tarde."},
		Alerts:          []string{},
	}
}

// extractJSON cuts the outermost JSON object out of a reply that may wrap it
// in prose or markdown fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// parseAnalysis decodes the structured analysis reply. Missing lists come
// back empty, never nil.
func parseAnalysis(raw string) (Analysis, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return Analysis{}, errors.New("no JSON object in assistant reply")
	}

	var a Analysis
	if err := json.Unmarshal([]byte(jsonStr), &a); err != nil {
		return Analysis{}, err
	}

	if a.Insights == nil {
		a.Insights = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.Alerts == nil {
		a.Alerts = []string{}
	}
	return a, nil
}
