package model

// GuestReply is the structured form of the guest-service stage output. Plain
// text replies map to Text with IsDuringServiceRequest false.
type GuestReply struct {
	Text                   string `json:"text"`
	IsDuringServiceRequest bool   `json:"isDuringServiceRequest"`
}

// Button is one quick-reply suggestion produced by the buttons stage.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// ButtonsResult is the buttons stage output: suggestions plus the language
// the model detected in the guest's message.
type ButtonsResult struct {
	Result   []Button `json:"result"`
	Language string   `json:"language"`
}

// EmailDecision is the email stage output. ShouldSendEmail with a non-empty
// EmailText triggers an escalation email; DuringEmailClarification swaps the
// displayed reply for ClarificationText.
type EmailDecision struct {
	EmailText                string `json:"emailText"`
	DuringEmailClarification bool   `json:"duringEmailClarification"`
	ShouldSendEmail          bool   `json:"shouldSendEmail"`
	ClarificationText        string `json:"clarificationText"`
}
