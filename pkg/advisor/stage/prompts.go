package stage

import (
	"fmt"
	"strings"
)

const retrievalSummarySystem = `You are a banking product specialist summarizing search results.
Keep every product name, rate, fee and requirement exactly as given. Do not invent products.`

func retrievalSummaryPrompt(query, searchResults string) string {
	return fmt.Sprintf(`Search for bank products that match the customer's needs.

Search Criteria: %s

SEARCH RESULTS:
%s

Steps:
1. Keep only the products relevant to the criteria
2. For each product keep:
   - Product name
   - Key features
   - Interest rates / fees
   - Eligibility requirements
   - Special benefits
3. Sort by relevance to the customer's needs

Return a comprehensive list of matching products with details.`, query, searchResults)
}

const comparisonSystem = `You are a product comparison specialist.
You excel at breaking down complex product features.`

func comparisonPrompt(products string) string {
	return fmt.Sprintf(`Create a detailed comparison of the candidate products.

Products to Compare: %s

Create comprehensive comparisons including:
1. Interest Rates & Fees
2. Credit Limits
3. Reward Programs
4. Additional Benefits (Insurance, Lounge Access, etc.)
5. Unique Features

Format:
- Create a comparison table for easy reading
- Highlight key differences
- Create pros and cons for each product
- Indicate which product is best for which use case

Make the comparison easy for customers to understand and compare options.`, products)
}

const assessmentSystem = `You are an eligibility analyst for a bank.
Determine if the customer meets requirements for each product. Be encouraging and helpful.`

func assessmentPrompt(products, profile string) string {
	if profile == "" {
		profile = "General"
	}
	return fmt.Sprintf(`Analyze customer eligibility for the recommended products.

Recommended Products: %s
Customer Profile: %s

ASSESSMENT PROCESS:
1. Evaluate the profile against product-specific requirements:
   - Age: 18-70 years (basic), 16-70 years (supplementary)
   - Employment: Minimum 6 months (salaried), 3 years (self-employed)
   - Income: Regular/demonstrated capability
   - Credit History: Preferred but may be waivable with guarantor
   - E-TIN: MANDATORY for all credit products

2. Provide clear assessment:
   - Eligible: Customer meets all requirements
   - Likely Eligible: Minor gaps that can be addressed
   - Not Currently Eligible: Explain gaps and suggest timeline to reapply

3. For each assessment level:
   - List what requirements they meet
   - Identify any gaps
   - Provide actionable next steps
   - Suggest documents needed for application

Focus on what they CAN do to become eligible if gaps exist.`, products, profile)
}

const formatSystem = `You are an expert communicator for a bank.
Compile all analysis into a clear, actionable customer response. Friendly, not robotic.`

func formatPrompt(query, products, comparison, assessment string) string {
	var b strings.Builder

	b.WriteString(`Take the analysis below and create a FINAL FORMATTED RESPONSE for the customer.

The response should be:
- Clear and well-structured
- Friendly and professional in tone
- Easy to read with proper formatting
- Actionable with next steps

`)
	fmt.Fprintf(&b, "Original Customer Query: %q\n\nPRODUCT INFORMATION:\n%s\n", query, products)

	if comparison != "" {
		fmt.Fprintf(&b, "\nFEATURE COMPARISON:\n%s\n", comparison)
		b.WriteString(`
Since feature comparison was performed:
- Highlight key differences between products
- Show which product is best for their use case
- Include pros/cons or a comparison table
`)
	}

	if assessment != "" {
		fmt.Fprintf(&b, "\nELIGIBILITY ASSESSMENT:\n%s\n", assessment)
		b.WriteString(`
Since eligibility analysis was performed:
- Show which products the customer qualifies for
- Highlight eligibility status clearly
- Explain any requirements or next steps
`)
	}

	b.WriteString(`
Format the response as follows:
1. **Summary**: Brief answer to their question
2. **Recommended Products**: Top 1-3 products with WHY they're recommended
3. **Key Features/Benefits**: What makes these products suitable
4. **Next Steps**: How to apply, what documents are needed

Make it friendly and empower the customer to make a decision.`)

	return b.String()
}
