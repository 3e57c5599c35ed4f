// Package export turns finalized quiz records into downloadable
// artifacts. The coordinator validates and re-cleans records before any
// rendering happens; CSV is rendered here, the PDF variants are delegated
// to the rendering layer behind the Renderer interface.
package export
