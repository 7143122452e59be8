package models

// Dataset is the cached view of the authoritative store: records grouped by
// entity type.
type Dataset map[string][]Payload

// Clone copies the dataset deep enough that appending or replacing records
// in the copy leaves d untouched.
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	for k, records := range d {
		cp := make([]Payload, len(records))
		for i, r := range records {
			cp[i] = r.Clone()
		}
		out[k] = cp
	}
	return out
}

// Upsert replaces the record with the same primary key, or appends p.
func (d Dataset) Upsert(entityType string, p Payload) {
	id := PrimaryKey(p)
	records := d[entityType]
	for i, r := range records {
		if id != "" && PrimaryKey(r) == id {
			records[i] = p
			return
		}
	}
	d[entityType] = append(records, p)
}

// Remove drops the record with primary key id, if present.
func (d Dataset) Remove(entityType, id string) {
	records := d[entityType]
	for i, r := range records {
		if PrimaryKey(r) == id {
			d[entityType] = append(records[:i:i], records[i+1:]...)
			return
		}
	}
}

// Apply folds a single mutation into the dataset.
func (d Dataset) Apply(op Operation, entityType string, p Payload) {
	switch op {
	case OperationDelete:
		d.Remove(entityType, PrimaryKey(p))
	default:
		d.Upsert(entityType, p)
	}
}
