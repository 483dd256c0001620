package llm

import (
	"fmt"
	"strings"

	"github.com/starford/finsage/internal/models"
)

const promptHeader = `You are a knowledgeable personal finance assistant. Your role is to provide helpful, accurate, and practical financial advice based ONLY on the provided context documents.

IMPORTANT GUIDELINES:
1. Base your response ONLY on the information provided in the context documents below
2. If the context doesn't contain enough information to fully answer the question, clearly state this limitation
3. Provide practical, actionable advice when possible
4. Use clear, easy-to-understand language
5. If asked about specific numbers or calculations, be precise and show your work
6. Always prioritize the user's financial safety and well-being
7. Do not provide advice that could be construed as professional financial planning without proper disclaimers
`

const noContextNotice = "No reference material was found in the knowledge base for this question."

// BuildPrompt renders the instruction prompt for question with one numbered
// "Document N:" block per passage.
func BuildPrompt(question string, passages []models.SearchResult) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\nCONTEXT DOCUMENTS:\n")
	if len(passages) == 0 {
		b.WriteString(noContextNotice)
	}
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document %d:\n%s", i+1, p.Content)
	}
	fmt.Fprintf(&b, "\n\nUSER QUESTION: %s\n\nRESPONSE:\n", question)
	b.WriteString("Please provide a comprehensive answer based on the context documents above. ")
	b.WriteString("If the context is insufficient, suggest what additional information might be needed.")
	return b.String()
}
