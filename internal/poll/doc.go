// Package poll implements the in-memory poll-collection session engine.
// Each chat has at most one active session; forwarded polls are cleaned
// and appended under the session's lock, the forwarded source message is
// deleted as a fire-and-forget side effect, and the accumulated records
// are handed to the export path when the owner finishes collecting.
// Sessions are deliberately not persisted: a process restart loses them.
package poll
