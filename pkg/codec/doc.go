// Package codec converts call-flow graphs to and from the interchange document:
//
//	{ "nodes": [{"id", "blockType", "name", "config", "position"}],
//	  "edges": [{"id", "source", "target", "sourceHandle"?}],
//	  "start"? }
//
// Documents are exchanged as JSON or YAML. Decoding enforces shape only; semantic
// problems such as edges to missing nodes are left to the validator. Nodes whose
// blockType this version does not know are kept verbatim and re-encoded unchanged.
package codec
