package gemini

// promptData represents the data passed to the prompt templates.
type promptData struct {
	// ItemCount is the number of source items in the batch.
	ItemCount int
}

// responseSchema represents the expected structure of the Gemini API
// response for one batch of items.
type responseSchema struct {
	// Questions is the array of quiz questions produced for the batch.
	Questions []questionSchema `json:"questions"`
}

// questionSchema represents a single quiz question in the API response.
type questionSchema struct {
	// Question is the question text.
	Question string `json:"question"`

	// Options are the answer choices, between two and five.
	Options []string `json:"options"`

	// Answer is the 1-based index of the correct option.
	Answer int `json:"answer"`

	// Explanation optionally justifies the correct answer.
	Explanation string `json:"explanation,omitempty"`
}
