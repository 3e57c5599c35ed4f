// Package events defines the message types exchanged with the
// chat-transport layer and an in-memory emitter for dispatching them.
//
// Inbound events (documents, forwarded polls, commands) enter the core
// through the services; outbound notices (task accepted or rejected,
// progress, export ready, errors) flow back to the transport through the
// NoticeEmitter so the core never holds a reference to the chat client.
package events
