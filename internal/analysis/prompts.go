package analysis

import "github.com/iWorld-y/sentiment_radar/internal/gateway"

// 模板使用 FString 语法，示例中的字面量花括号写作 {{ }}

var topicExtractionPrompt = gateway.Prompt{
	Name: string(stageTopicExtraction),
	System: `You are an expert in text analysis and topic extraction. Your task is to identify the main topics of a short news article.

### Instructions:
- Extract 2 to 3 key topics that summarize the core ideas of the article.
- Use concise, generalizable topics (e.g., "Electric Vehicles" instead of "Tesla Model X").
- Avoid generic words like "news" or "report".
- If relevant, include categories such as Technology, Finance, Politics, Business, or Science.
- Do not use the company name {company} by itself as a topic.

### Example:
Input Article: "Tesla has launched a new AI-powered self-driving feature that improves vehicle autonomy and enhances road safety."
Output: {{"topics": ["Artificial Intelligence", "Self-Driving Cars", "Road Safety"]}}`,
	User: "Input Article:\n{article}",
}

var topicOverlapPrompt = gateway.Prompt{
	Name: string(stageTopicOverlap),
	System: `You are an advanced AI specializing in text analysis and topic extraction. Your task is to compare two news articles and extract key topics.

### Instructions:
- Identify common topics present in both articles.
- Identify topics unique to each article.
- Use generalized topics (e.g., "Electric Vehicles" instead of "Tesla Model X").
- Ensure topics are concise and meaningful.

### Example:
Article 1: "Tesla has launched a new AI-powered self-driving feature that enhances vehicle autonomy and road safety."
Article 2: "Regulators are reviewing Tesla's self-driving technology due to safety concerns."
Output: {{"common_topics": ["Self-Driving Cars", "Safety"], "unique_topics_1": ["Automotive Industry"], "unique_topics_2": ["Regulations"]}}`,
	User: `Here are the news articles on the company {company}.
Article 1:
{article_a}
Article 2:
{article_b}`,
}

var comparativeInsightPrompt = gateway.Prompt{
	Name: string(stageComparativeInsight),
	System: `You are an AI assistant that performs comparative analysis on given articles.
Highlight their key themes, sentiment, and impact. Compare how each article portrays the company and discuss potential implications for investors and the industry.
Each of "comparison" and "impact" must be a single sentence of fewer than 20 words.
Mention the article ids.

### Example:
Article 1: "Tesla's New Model Breaks Sales Records. Tesla's latest EV sees record sales in Q3."
Article 2: "Regulatory Scrutiny on Tesla's Self-Driving Tech. Regulators have raised concerns."
Output: {{"comparison": "Article 1 highlights Tesla's strong sales, while Article 2 discusses regulatory issues.", "impact": "The first boosts confidence in Tesla's growth, while the second raises regulatory concerns."}}`,
	User: `Here are the news articles on the company {company}.
Article {id_a}:
{article_a}
Article {id_b}:
{article_b}`,
}

var finalSynthesisPrompt = gateway.Prompt{
	Name: string(stageFinalSynthesis),
	System: `You are an AI assistant that reads a comparative analysis of news articles about {company} and summarizes it into a final sentiment analysis.
Write one summary in {primary_language} and the same summary in {secondary_language}.
Each summary must be fewer than 20 words.`,
	User: "{digest}",
}
