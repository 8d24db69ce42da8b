package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/enrich"
	"github.com/hubenschmidt/go-mfginsight/store"
)

const sqlSummarySections = "Please provide a comprehensive, detailed analysis that includes:\n" +
	"1. **Executive Summary**: A high-level overview of the findings\n" +
	"2. **Detailed Analysis**: Deep dive into the data patterns, trends, and insights\n" +
	"3. **Key Metrics**: Important statistics and performance indicators\n" +
	"4. **Pattern Recognition**: Identify recurring patterns or anomalies\n" +
	"5. **Operational Insights**: Practical implications for manufacturing operations\n" +
	"6. **Recommendations**: Actionable suggestions based on the analysis\n" +
	"7. **Risk Assessment**: Potential issues or areas of concern\n" +
	"8. **Future Trends**: Predictions or trends based on the data\n\n" +
	"Make the analysis thorough, professional, and actionable. Include specific numbers, percentages, and detailed explanations. " +
	"Structure the response with clear sections and use bullet points where appropriate. " +
	"The response should be comprehensive enough to provide valuable insights for manufacturing decision-makers."

const fallbackPreamble = "You are an expert manufacturing analytics assistant with deep knowledge of industrial processes, " +
	"predictive maintenance, and operational excellence. Analyze the following information and provide a comprehensive, detailed answer."

const fallbackSections = "Please provide a thorough, professional analysis that includes:\n\n" +
	"1. **Executive Summary**: High-level overview of the findings and key insights\n" +
	"2. **Data Analysis**: Detailed examination of the manufacturing events, including patterns, trends, and anomalies\n" +
	"3. **External Context**: Integration of relevant industry knowledge and best practices from external sources\n" +
	"4. **Operational Impact**: How the findings affect manufacturing operations, efficiency, and productivity\n" +
	"5. **Technical Insights**: Deep technical analysis of machine behavior, event correlations, and system performance\n" +
	"6. **Risk Assessment**: Identification of potential operational risks, maintenance issues, or quality concerns\n" +
	"7. **Strategic Recommendations**: Actionable recommendations for process improvement, maintenance scheduling, and operational optimization\n" +
	"8. **Industry Benchmarking**: Comparison with industry standards and best practices\n" +
	"9. **Predictive Insights**: Future trends and predictive analysis based on current data patterns\n" +
	"10. **Implementation Roadmap**: Step-by-step guidance for implementing the recommendations\n\n" +
	"Make the analysis comprehensive, data-driven, and actionable. Include specific metrics, percentages, and detailed explanations. " +
	"Structure the response with clear sections, use bullet points for key findings, and provide concrete examples. " +
	"The response should be detailed enough to serve as a professional manufacturing analytics report."

// SQLSummaryPrompt asks for an eight-section report over query rows.
func SQLSummaryPrompt(question string, rows []store.Row) string {
	return fmt.Sprintf("User question: %s\n\nDatabase Results:\n%s\n\n%s", question, jsonText(rows), sqlSummarySections)
}

// FallbackPrompt asks for a ten-section report over the raw events and the
// external findings, one line per source.
func FallbackPrompt(question, eventContext string, findings []enrich.Finding) string {
	var ext strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&ext, "%s: %s\n", f.Source.Heading(), f.Line())
	}
	if ext.Len() == 0 {
		ext.WriteString("None available.\n")
	}

	return fmt.Sprintf("%s\n\nQuestion: %s\n\nManufacturing Events Data:\n%s\n\nExternal Knowledge Sources:\n%s\n%s",
		fallbackPreamble, question, eventContext, ext.String(), fallbackSections)
}

// EventContext serializes events for a prompt. Embeddings are left out.
func EventContext(events []core.Event) string {
	trimmed := make([]core.Event, len(events))
	for i, e := range events {
		e.Embedding = nil
		trimmed[i] = e
	}
	return jsonText(trimmed)
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
