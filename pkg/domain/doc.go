/*
Package domain contains the core model of an IVR call flow.

It defines the closed set of call-handling blocks, their typed configurations, and the
Graph aggregate that owns nodes and edges. It also holds the value types produced by the
validator (Report) and the compiler (Script). This package is kept pure and free of I/O
or persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - Node: one call-handling block (prompt, key, transfer, hangup, ...).
  - Edge: a directed transition, optionally tagged with the branch handle it represents.
  - Graph: the aggregate. All mutations go through its methods and bump its version.
  - Report: errors and warnings found by validation.
  - Script: the ordered call-control units emitted by compilation.
*/
package domain
