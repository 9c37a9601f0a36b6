package models

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&CaseRecord{},
		&SequenceCounter{},
		&Document{},
		&Task{},
		&Event{},
		&Invoice{},
		&AuditLog{},
	}
}
