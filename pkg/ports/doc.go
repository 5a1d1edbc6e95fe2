/*
Package ports defines the driven ports (interfaces) of ivrflow.

These interfaces decouple flow management from storage backends, so the same
Manager works against memory, files, Redis or SQLite.

# Key Interfaces

  - FlowStore: persists and loads FlowRecords.
  - DistributedLocker: serializes saves of one flow across replicas.
*/
package ports
