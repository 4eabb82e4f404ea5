package knowledge

import "time"

// EntryType categorizes knowledge-base entries.
type EntryType string

const (
	// EntryMachine describes a manufacturing machine.
	EntryMachine EntryType = "machine"
	// EntryMaterial describes a material.
	EntryMaterial EntryType = "material"
	// EntryProcess describes a manufacturing process.
	EntryProcess EntryType = "process"
	// EntryDocument is a chunk of an ingested reference document.
	EntryDocument EntryType = "document"
)

// Entry is one knowledge-base record.
type Entry struct {
	// ID is the unique identifier.
	ID string `json:"id"`
	// Type categorizes the entry.
	Type EntryType `json:"type"`
	// Content is the searchable text.
	Content string `json:"content"`
	// Metadata carries additional attributes.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the entry was ingested.
	CreatedAt time.Time `json:"created_at"`
}

// MachineSpec describes a manufacturing machine.
type MachineSpec struct {
	// Name of the machine.
	Name string `json:"name"`
	// Type of machine (printer, cutter, folder, ...).
	Type string `json:"type"`
	// Capabilities the machine offers.
	Capabilities []string `json:"capabilities"`
	// Constraints on its use.
	Constraints []string `json:"constraints"`
	// Specifications is the detailed technical text.
	Specifications string `json:"specifications"`
}

// MaterialSpec describes a material.
type MaterialSpec struct {
	// Name of the material.
	Name string `json:"name"`
	// Type of material (paper, plastic, metal, ...).
	Type string `json:"type"`
	// Properties of the material.
	Properties []string `json:"properties"`
	// Constraints on its use.
	Constraints []string `json:"constraints"`
	// Specifications is the detailed technical text.
	Specifications string `json:"specifications"`
}

// ProcessSpec describes a manufacturing process.
type ProcessSpec struct {
	// Name of the process.
	Name string `json:"name"`
	// Type of process (printing, cutting, folding, ...).
	Type string `json:"type"`
	// Requirements for running the process.
	Requirements []string `json:"requirements"`
	// Constraints on its use.
	Constraints []string `json:"constraints"`
	// Specifications is the detailed technical text.
	Specifications string `json:"specifications"`
}

// Document is a reference document to ingest as chunks.
type Document struct {
	// Name identifies the document (filename or title).
	Name string `json:"name"`
	// Content is the full document text.
	Content string `json:"content"`
	// Tags label the document.
	Tags []string `json:"tags,omitempty"`
	// Description summarizes the document.
	Description string `json:"description,omitempty"`
}
