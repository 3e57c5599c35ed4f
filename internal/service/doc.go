// Package service implements the application's use cases on top of the
// core packages. Services check authorization at the edge, translate
// queue and session errors into user notices, and keep the transport
// layer free of business rules.
package service
