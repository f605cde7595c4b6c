package pipeline

import "fmt"

// Generation options for every extraction call. Low temperature keeps the
// structured output consistent.
const (
	genTemperature     = 0.1
	genMaxOutputTokens = 500
)

const ocrPrompt = `Extract all visible text from this image of a note/email/appointment request. ` +
	`Output only the raw text as a string, followed by a JSON like {"confidence": 0.95} ` +
	`where confidence is your certainty (0-1) about the extraction accuracy. ` +
	`Focus on appointment-related phrases like dates, times, departments. Raw text: `

const cleanupPromptPrefix = `Clean and return the input text as-is for appointment parsing. ` +
	`Output the raw text, followed by {"confidence": 0.95} (high confidence for typed text). Input: `

func cleanupPrompt(text string) string {
	return cleanupPromptPrefix + text
}

func entityPrompt(rawText string) string {
	return fmt.Sprintf(`You are an entity extractor for appointment scheduling. Analyze the following raw text and extract:
- date_phrase: The exact phrase referring to the date (e.g., "next Friday", "tomorrow"). Default "" if none.
- time_phrase: The exact phrase referring to the time (e.g., "3pm", "10am"). Default "" if none.
- department: Medical department (e.g., "dentist", "cardiologist", "general"). Default "" if unclear.
- notes: Any additional details (e.g., "urgent", "bring reports"). Default "".

Examples:
- "Book dentist next Friday at 3pm" -> {"date_phrase": "next Friday", "time_phrase": "3pm", "department": "dentist", "notes": ""}
- "Cardio checkup tomorrow 10am, bring reports" -> {"date_phrase": "tomorrow", "time_phrase": "10am", "department": "cardiologist", "notes": "bring reports"}

Output ONLY valid JSON: {"date_phrase": "...", "time_phrase": "...", "department": "...", "notes": "..."}. No extra text.

Raw text: %s`, rawText)
}

func normalizePrompt(ents Entities, referenceDate, timezone string) string {
	return fmt.Sprintf(`You are an appointment normalization assistant. Given the following extracted appointment details, convert them into a standardized JSON format.
Assume today's date is %s and the timezone is %s for relative date/time calculations.

Input entities:
- date_phrase: %q
- time_phrase: %q
- department: %q
- notes: %q

Output ONLY valid JSON: {"date": "YYYY-MM-DD", "time": "HH:MM", "tz": %q}.
- 'date' should be in ISO format (YYYY-MM-DD). Infer from 'date_phrase' relative to today. If 'date_phrase' is empty or unclear, default to "".
- 'time' should be in 24-hour format (HH:MM). Infer from 'time_phrase'. If 'time_phrase' is empty or unclear, default to "".
- 'tz' should always be %q.

Examples:
- Input: {"date_phrase": "next Friday", "time_phrase": "3pm"}
  Output: {"date": "2023-10-13", "time": "15:00", "tz": %q} (assuming today is 2023-10-06)
- Input: {"date_phrase": "tomorrow", "time_phrase": "10am"}
  Output: {"date": "2023-10-07", "time": "10:00", "tz": %q} (assuming today is 2023-10-06)
- Input: {"date_phrase": "", "time_phrase": "evening"}
  Output: {"date": "", "time": "", "tz": %q}

Normalize the following:`,
		referenceDate, timezone,
		ents.DatePhrase, ents.TimePhrase, ents.Department, ents.Notes,
		timezone, timezone, timezone, timezone, timezone)
}
