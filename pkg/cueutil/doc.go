// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go structs.
//
// Every parse follows the same flow: compile the schema, compile the data,
// unify the data with one schema definition, validate, and decode. Errors are
// rewritten with JSON-style paths so that a bad checksum reads as
// "om-7.14.0.cue: variants[2].sha256: invalid value".
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[Manifest](schema, data, "#Manifest",
//	    cueutil.WithFilename("om-7.14.0.cue"))
package cueutil
