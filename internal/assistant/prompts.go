package assistant

import (
	"encoding/json"
	"fmt"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/stats"
	"finance-tracker/internal/util"
)

// systemPrompt fixes the assistant persona: European Portuguese, informal
// "tu", direct and actionable.
const systemPrompt = `És um assistente financeiro português especializado em finanças pessoais.
Deves SEMPRE:
- Usar português de Portugal (não brasileiro)
- Usar "tu" em vez de "você"
- Usar termos comuns em Portugal: "despesas" em vez de "gastos", "habitação" em vez de "moradia", "valor" em vez de "quantia"
- Ser direto e prático nas respostas
- Fornecer análises acionáveis
- Manter um tom profissional mas amigável`

const analysisTemplate = `Como analista financeiro, analisa os seguintes dados financeiros e responde APENAS com um objeto JSON com as chaves "insights", "recommendations" e "alerts", cada uma com uma lista de strings. Sem markdown, sem texto fora do JSON.

Transações: %s
Estatísticas: %s

Fornece em português de Portugal:
1. 3-5 análises sobre os padrões de despesas e tendências ("insights")
2. 3-5 sugestões específicas para melhorar a saúde financeira ("recommendations")
3. Alertas importantes sobre despesas excessivas ou padrões preocupantes ("alerts")`

const chatTemplate = `Contexto financeiro do utilizador:

Transações: %s
Estatísticas: %s

Pergunta do utilizador: %s

Responde de forma direta e prática, em português de Portugal.`

// txContext is the slim transaction view embedded in prompts. Amounts go out
// as display strings so the model never sees raw cents.
type txContext struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

type statsContext struct {
	TotalBalance          string `json:"total_balance"`
	MonthlyIncome         string `json:"monthly_income"`
	MonthlyExpenses       string `json:"monthly_expenses"`
	PreviousMonthIncome   string `json:"previous_month_income"`
	PreviousMonthExpenses string `json:"previous_month_expenses"`
}

func contextJSON(txs []models.Transaction, s stats.DashboardStats) (string, string) {
	views := make([]txContext, 0, len(txs))
	for i := range txs {
		t := &txs[i]
		views = append(views, txContext{
			Description: t.Description,
			Type:        t.Type,
			Category:    t.Category,
			Amount:      util.FormatAmount(t.AmountCents),
			Date:        t.Date.Format(time.DateOnly),
		})
	}

	sv := statsContext{
		TotalBalance:          util.FormatAmount(s.TotalBalanceCents),
		MonthlyIncome:         util.FormatAmount(s.MonthlyIncomeCents),
		MonthlyExpenses:       util.FormatAmount(s.MonthlyExpensesCents),
		PreviousMonthIncome:   util.FormatAmount(s.PreviousMonthIncomeCents),
		PreviousMonthExpenses: util.FormatAmount(s.PreviousMonthExpensesCents),
	}

	txJSON, _ := json.Marshal(views)
	statsJSON, _ := json.Marshal(sv)
	return string(txJSON), string(statsJSON)
}

func analysisPrompt(txs []models.Transaction, s stats.DashboardStats) string {
	txJSON, statsJSON := contextJSON(txs, s)
	return fmt.Sprintf(analysisTemplate, txJSON, statsJSON)
}

func chatPrompt(txs []models.Transaction, s stats.DashboardStats, question string) string {
	txJSON, statsJSON := contextJSON(txs, s)
	return fmt.Sprintf(chatTemplate, txJSON, statsJSON, question)
}
