// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API to produce quiz records from
// document pages and images.
//
// This package is an infrastructure adapter, connecting the application's
// processing pipeline to Google's external Gemini AI service. It translates
// between the application's domain models and the Gemini API without
// exposing the details of the external service to the core application.
//
// Key components:
//
// 1. Generator:
//   - Implements the generation.Generator interface
//   - Maintains one API client per credential so the rotator can switch
//     keys between calls
//   - Paces outbound calls with a shared rate limiter
//
// 2. Prompt Management:
//   - Holds one prompt template per generation mode
//   - Substitutes batch metadata into templates
//
// 3. Response Processing:
//   - Parses structured JSON responses from the API
//   - Validates responses against the expected schema
//   - Converts API responses to domain QuizRecord values
//
// 4. Error Handling:
//   - Categorizes and translates API errors into the generation package's
//     error taxonomy so callers can decide between rotating credentials,
//     retrying, and failing
//   - Handles content filtering and safety measures
package gemini
