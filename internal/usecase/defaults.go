package usecase

import "hotel-guest-concierge/internal/domain/model"

// Built-in prompts and model configurations. Used whenever the prompt
// registry has no managed version of a task prompt, so the pipeline keeps
// working with zero remote configuration.

const defaultGuestServicePrompt = `You are a hotel guest-service assistant. Answer the guest's question
helpfully and concisely, in the language the guest writes in. Base factual
answers on the knowledge base below; if the knowledge base does not cover the
question, say so politely and offer to pass the request to the front desk.

Respond with a JSON object:
{"text": "<your reply to the guest>", "isDuringServiceRequest": <true when the guest is asking staff to do something for them, false otherwise>}`

const defaultButtonsPrompt = `You suggest quick-reply buttons for a hotel guest chat. Given the
conversation and the assistant's latest reply, propose up to three short
follow-up actions the guest is likely to tap next. Also detect the language
of the guest's last message as a two-letter code.

Respond with a JSON object:
{"result": [{"title": "<button label, max 20 chars>", "payload": "<the message sent when tapped>"}], "language": "<two-letter code>"}

Return {"result": [], "language": "..."} when no button makes sense.`

const defaultEmailPrompt = `You decide whether a hotel guest's message requires escalation to staff
by email. Escalate concrete service requests (housekeeping, maintenance,
bookings, complaints), not small talk or questions already answered.
If details needed by staff are missing, ask the guest for them instead of
escalating.

Respond with a JSON object:
{"shouldSendEmail": <bool>, "emailText": "<summary for staff, empty if not escalating>", "duringEmailClarification": <true when you still need details from the guest>, "clarificationText": "<the question to ask the guest, empty otherwise>"}`

const defaultSheetMatchingPrompt = `You filter a hotel knowledge base for relevance. Given a guest message and
the knowledge base rows, return only the rows that could help answer the
message, verbatim, one per line. Return the most generally useful rows if
nothing matches directly. Output plain text rows only, no commentary.`

func defaultPrompt(task string) string {
	switch task {
	case model.TaskGuestService:
		return defaultGuestServicePrompt
	case model.TaskButtons:
		return defaultButtonsPrompt
	case model.TaskEmail:
		return defaultEmailPrompt
	case model.TaskSheetMatching:
		return defaultSheetMatchingPrompt
	}
	return ""
}

func defaultTaskConfig(task string) model.TaskLLMConfig {
	switch task {
	case model.TaskGuestService:
		return model.TaskLLMConfig{
			Model:       "gpt-4o-mini",
			Provider:    "openai",
			Temperature: 0.7,
			MaxTokens:   1024,
			Alternative: &model.TaskLLMConfig{
				Model:       "gemini-2.0-flash",
				Provider:    "gemini",
				Temperature: 0.7,
				MaxTokens:   1024,
			},
		}
	case model.TaskButtons:
		return model.TaskLLMConfig{
			Model:       "gpt-4o-mini",
			Provider:    "openai",
			Temperature: 0.4,
			MaxTokens:   512,
		}
	case model.TaskEmail:
		return model.TaskLLMConfig{
			Model:       "gpt-4o-mini",
			Provider:    "openai",
			Temperature: 0.3,
			MaxTokens:   1024,
		}
	case model.TaskSheetMatching:
		return model.TaskLLMConfig{
			Model:     "gpt-4o-mini",
			Provider:  "openai",
			MaxTokens: 2048,
		}
	}
	return model.TaskLLMConfig{Model: "gpt-4o-mini", Provider: "openai", MaxTokens: 1024}
}
