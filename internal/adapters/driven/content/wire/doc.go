// Package wire decodes and encodes the content store envelope.
//
// A table of contents is a JSON array of {title, path?, items?} nodes
// (an {"items": [...]} object is also accepted). A document is
// {title, category?, content: [block], metadata?}. Blocks carry a
// "type" discriminator; unknown types decode to domain.UnknownBlock so
// newer content degrades gracefully. YAML envelopes with the same shape
// are converted to JSON first.
package wire
