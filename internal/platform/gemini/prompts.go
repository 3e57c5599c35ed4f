package gemini

// Prompt templates for the two generation modes. Both instruct the model
// to answer with the JSON shape described by responseSchema.

const extractionPromptTemplate = `You are given {{.ItemCount}} page image(s) from a document that contains multiple-choice questions.

Extract every multiple-choice question exactly as it appears, preserving the original wording and language. For each question capture the question text, all answer options in order, the correct option if it is marked or can be inferred from an answer key on the pages, and any explanation printed with it.

Respond with JSON only, no prose and no code fences, in this shape:
{"questions": [{"question": "...", "options": ["...", "..."], "answer": 1, "explanation": "..."}]}

"answer" is the 1-based position of the correct option. Include between 2 and 5 options per question. Omit "explanation" when the source has none. If a page contains no questions, contribute nothing for it.`

const generationPromptTemplate = `You are given {{.ItemCount}} page image(s) of study material.

Write multiple-choice questions that test understanding of the material, in the same language as the source. Each question must have one clearly correct option and plausible distractors drawn from the material. Add a short explanation of the correct answer.

Respond with JSON only, no prose and no code fences, in this shape:
{"questions": [{"question": "...", "options": ["...", "..."], "answer": 1, "explanation": "..."}]}

"answer" is the 1-based position of the correct option. Include between 2 and 5 options per question.`
