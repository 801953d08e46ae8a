package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"sentinela/internal/core"
)

// buildSentimentPrompt asks for a strict-JSON sentiment assessment of the
// headlines mentioning term.
func buildSentimentPrompt(term string, titles []string) string {
	var sb strings.Builder
	sb.WriteString("Analise o sentimento das manchetes abaixo sobre \"")
	sb.WriteString(term)
	sb.WriteString("\".\n\nManchetes:\n")
	for _, title := range titles {
		sb.WriteString("- ")
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	sb.WriteString(`
Responda APENAS com JSON no formato:
{"score": <numero entre -1 e 1>, "classification": "<Positivo|Neutro|Negativo>", "summary": "<uma frase curta justificando>"}`)
	return sb.String()
}

// buildBriefingPrompt asks for a short situational briefing over the
// current metrics and alert summary.
func buildBriefingPrompt(global core.GlobalMetrics, alerts core.AlertSummary, topTitles []string) string {
	avgSentiment := "sem dados"
	if global.AvgSentiment != nil {
		avgSentiment = fmt.Sprintf("%.2f", *global.AvgSentiment)
	}

	var sb strings.Builder
	sb.WriteString("Voce e um assessor de comunicacao. Gere um briefing curto da situacao atual.\n\n")
	fmt.Fprintf(&sb, "Mencoes totais: %d\n", global.TotalMentions)
	fmt.Fprintf(&sb, "Sentimento medio: %s\n", avgSentiment)
	if global.HottestTerm != "" {
		fmt.Fprintf(&sb, "Termo mais citado: %s\n", global.HottestTerm)
	}
	fmt.Fprintf(&sb, "Tendencia geral: %s\n", global.OverallTrend)
	fmt.Fprintf(&sb, "Alertas ativos: %d (criticos: %d, oportunidades: %d)\n",
		alerts.Total, alerts.DangerCount, alerts.OpportunityCount)
	if alerts.TopAlert != "" {
		fmt.Fprintf(&sb, "Alerta principal: %s\n", alerts.TopAlert)
	}
	if len(topTitles) > 0 {
		sb.WriteString("\nManchetes recentes:\n")
		for _, title := range topTitles {
			sb.WriteString("- ")
			sb.WriteString(title)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(`
Responda APENAS com JSON no formato:
{"status": "<calm|alert|crisis>", "summary": "<2 a 3 frases em portugues>", "recommendations": ["<acao 1>", "<acao 2>"]}`)
	return sb.String()
}

// extractJSON trims markdown fences and surrounding prose, keeping the
// outermost JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// parseSentiment decodes a provider response into a SentimentResult.
func parseSentiment(raw string) (*core.SentimentResult, error) {
	var result core.SentimentResult
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidResponse, err)
	}

	if result.Score > 1 {
		result.Score = 1
	}
	if result.Score < -1 {
		result.Score = -1
	}

	switch result.Classification {
	case "Positivo", "Neutro", "Negativo":
	default:
		result.Classification = classify(result.Score)
	}
	return &result, nil
}

// classify maps a score onto the three-way classification.
func classify(score float64) string {
	switch {
	case score > 0.15:
		return "Positivo"
	case score < -0.15:
		return "Negativo"
	default:
		return "Neutro"
	}
}

// parseBriefing decodes a provider response into a BriefingResult.
func parseBriefing(raw string) (*core.BriefingResult, error) {
	var result core.BriefingResult
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidResponse, err)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("%w: empty briefing summary", core.ErrInvalidResponse)
	}
	return &result, nil
}
