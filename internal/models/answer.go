package models

// Answer payloads serialized into StudentAnswerRow.Payload, one shape per
// question type.

type MultipleChoicePayload struct {
	SelectedAnswer *uint `json:"selected_answer"`
}

type TrueFalsePayload struct {
	// Selections maps statement index (0..3) to the student's judgment.
	// Absent keys mean the statement was never judged.
	Selections map[int]bool `json:"selections"`
}

type ShortAnswerPayload struct {
	// Text is stored verbatim, including surrounding whitespace.
	Text string `json:"text"`
}
