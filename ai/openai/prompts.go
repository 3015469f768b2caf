package openai

const rerankResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "scores": {
      "type": "array",
      "items": {
        "type": "number",
        "minimum": 0,
        "maximum": 1
      }
    }
  },
  "required": ["scores"],
  "additionalProperties": false
}`

const rerankSystemPrompt = `You are a relevance judge for document question answering. You will be given
a question and a numbered list of passages extracted from a single document.
Score each passage for how well it answers the question.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + rerankResponseSchema + `

Rules:
- Return exactly one score per passage, in the same order as the passages.
- A score of 1.0 means the passage directly and completely answers the question.
- A score of 0.0 means the passage is entirely unrelated to the question.
- Score on answer content, not on shared vocabulary: a passage that repeats the
  question's words without answering it should score low.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Question: "When is payment due?"
Passages:
[1] Payment is due within 30 days of the invoice date.
[2] The governing law of this agreement is the law of California.
Output:
{"scores": [0.95, 0.05]}`
