// Package archive models the read-only table of contents of an embedded
// application archive.
//
// Only entries of type TypeRuntimeOption carry interpreter startup options;
// Options filters a TOC down to those. The archive binary format itself is
// not handled here. Tooling describes a TOC with a YAML Manifest instead.
package archive
