package model

// ChatResponse is the externally visible chat reply envelope. The shape is
// fixed by the messenger contract consumed downstream.
type ChatResponse struct {
	Recipient     Recipient       `json:"recipient"`
	MessagingType string          `json:"messaging_type"`
	Message       ResponseMessage `json:"message"`
}

type Recipient struct {
	ID string `json:"id"`
}

type ResponseMessage struct {
	Attachment Attachment `json:"attachment"`
}

type Attachment struct {
	Type    string          `json:"type"`
	Payload TemplatePayload `json:"payload"`
}

type TemplatePayload struct {
	TemplateType string           `json:"template_type"`
	Language     string           `json:"language"`
	Text         string           `json:"text"`
	Buttons      []ResponseButton `json:"buttons"`
}

type ResponseButton struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// NewButtonTemplateResponse wraps the assembled reply into the envelope.
// Buttons is never nil so the serialized payload always carries an array.
func NewButtonTemplateResponse(sessionID, language, text string, buttons []Button) *ChatResponse {
	out := make([]ResponseButton, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, ResponseButton{Type: "postback", Title: b.Title, Payload: b.Payload})
	}
	return &ChatResponse{
		Recipient:     Recipient{ID: sessionID},
		MessagingType: "RESPONSE",
		Message: ResponseMessage{
			Attachment: Attachment{
				Type: "template",
				Payload: TemplatePayload{
					TemplateType: "button",
					Language:     language,
					Text:         text,
					Buttons:      out,
				},
			},
		},
	}
}
