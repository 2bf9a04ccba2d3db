// internal/ai/prompt.go
package ai

import "fmt"

// BuildAnalysisPrompt embeds the contract text and the strict output
// schema into a single analysis prompt.
func BuildAnalysisPrompt(contractText, contractType string) string {
	return fmt.Sprintf(`Analyze the following %s contract and provide a comprehensive analysis.

Contract Text:
%s

Please provide your analysis in the following JSON format:
{
  "overall_risk_score": <number between 0-100>,
  "summary": "<brief summary of the contract>",
  "key_findings": ["<finding1>", "<finding2>"],
  "risk_clauses": [
    {
      "clause_text": "<actual clause text>",
      "risk_level": "<low|medium|high|critical>",
      "risk_category": "<category like 'termination', 'liability'>",
      "explanation": "<why this is risky>",
      "recommendation": "<how to mitigate>",
      "location": "<section/paragraph reference>"
    }
  ],
  "missing_clauses": [
    {
      "clause_type": "<type of missing clause>",
      "importance": "<low|medium|high|critical>",
      "description": "<what's missing>",
      "suggested_text": "<suggested clause text>",
      "legal_impact": "<potential legal consequences>"
    }
  ],
  "recommendations": ["<recommendation1>", "<recommendation2>"]
}

Focus on:
1. Identifying risky clauses that could be unfavorable
2. Missing standard clauses that should be included
3. Ambiguous language that could cause disputes
4. Imbalanced terms that favor one party
5. Compliance and regulatory considerations

Provide only the JSON response, no additional text.`, contractType, contractText)
}

// BuildChatPrompt frames a user question about a specific contract.
func BuildChatPrompt(contractTitle, contractPreview, question string) string {
	return fmt.Sprintf(`You are discussing the contract "%s" with its owner.

Contract excerpt:
%s

Question: %s

Answer concisely and in plain language, grounded in the contract text above. If the excerpt does not contain the answer, say so.`, contractTitle, contractPreview, question)
}
