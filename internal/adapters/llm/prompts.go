package llm

const extractionPromptFormat = `You are a specialized data extraction agent for an airline CX team.
Your goal is to extract specific facts from the email below into a structured JSON grid.

RULES:
1. Extract ONLY explicitly stated facts. Do not guess or infer.
2. If a field is not explicitly mentioned, return null.
3. For "issue_type", categorize into: FLIGHT_DELAY, CANCELLATION, STAFF_BEHAVIOR, BAGGAGE, REFUND, OTHER.
4. For "weather_condition", only extract if the passenger explicitly mentions weather causing the issue.

EMAIL CONTENT:
Subject: %s
Body: %s
Received At: %s

OUTPUT SCHEMA (JSON):
{
  "pnr": "string or null (6-character alphanumeric booking reference)",
  "complaint_summary": "string or null (brief summary of the passenger's complaint)",
  "flight_number": "string or null",
  "date": "YYYY-MM-DD or null",
  "issue_type": "string or null",
  "weather_condition": "string or null",
  "confidence_score": "number (0-100)"
}

Respond only with the JSON object and nothing else.`

const resolutionPromptFormat = `You are an airline CX agent reading an email from Base Operations.
Your goal is to extract the resolution details from the email body.
The email likely contains an HTML table or text with headers like "Action Taken" and "Outcome".

EMAIL BODY:
%s

RULES:
1. Identify the "Action Taken" by the ops team.
2. Identify the "Outcome" or final resolution provided to the customer.
3. Return null if these details are not found.

OUTPUT SCHEMA (JSON):
{
  "action_taken": "string or null",
  "outcome": "string or null"
}

Respond only with the JSON object and nothing else.`

const evaluationPromptFormat = `You are a supervisor AI for an airline CX team.
Your goal is to evaluate whether the resolution from Base Ops adequately addresses the customer's complaint.

COMPLAINT SUMMARY:
%s

RESOLUTION FROM BASE OPS:
%s

RULES:
1. Review "action_taken" and "outcome".
2. If the action addresses the core complaint issue, give a high score.
3. If it is dismissive or incomplete, give a low score and status FLAGGED.
4. Write a polite email response to the customer.

OUTPUT SCHEMA (JSON):
{
  "status": "RESOLVED" | "FLAGGED",
  "agent_summary": "1-sentence summary of the resolution",
  "confidence_score": number (0-100),
  "agent_reasoning": "internal note explaining the score",
  "draft_response": "polite email body to the customer as plain text, paragraphs separated by blank lines, no HTML or markdown"
}

Respond only with the JSON object and nothing else.`
