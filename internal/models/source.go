package models

// SourceType discriminates which document a DeliveryOrder or Invoice was
// generated from. An empty SourceType means the reference has been released.
type SourceType string

const (
	SourceJobOrder      SourceType = "job_order"
	SourceManifest      SourceType = "manifest"
	SourceDeliveryOrder SourceType = "delivery_order"
	SourceNone          SourceType = ""
)

// SourceRef is a typed reference to the originating document. The zero value
// is the released/none state.
type SourceRef struct {
	Type SourceType `gorm:"column:source_type;index" json:"source_type,omitempty"`
	ID   string     `gorm:"column:source_id;index" json:"source_id,omitempty"`
}

// JobOrderRef builds a reference to a job order document number.
func JobOrderRef(id string) SourceRef { return SourceRef{Type: SourceJobOrder, ID: id} }

// ManifestRef builds a reference to a manifest document number.
func ManifestRef(id string) SourceRef { return SourceRef{Type: SourceManifest, ID: id} }

// DeliveryOrderRef builds a reference to a delivery order document number.
func DeliveryOrderRef(id string) SourceRef { return SourceRef{Type: SourceDeliveryOrder, ID: id} }

// IsZero reports whether the reference has been released or never set.
func (r SourceRef) IsZero() bool {
	return r.Type == SourceNone || r.ID == ""
}

// Label returns the short document code used in operator-facing notes.
func (r SourceRef) Label() string {
	switch r.Type {
	case SourceJobOrder:
		return "JO"
	case SourceManifest:
		return "MF"
	case SourceDeliveryOrder:
		return "DO"
	}
	return "?"
}

// String renders the reference the way back-office staff write it, e.g.
// "JO-20260829-0001". Document numbers already carry their prefix, so the
// label is only prepended when the id lacks one.
func (r SourceRef) String() string {
	if r.IsZero() {
		return ""
	}
	if len(r.ID) >= 3 && r.ID[:3] == r.Label()+"-" {
		return r.ID
	}
	return r.Label() + "-" + r.ID
}
