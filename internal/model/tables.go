package model

// CIMSTables returns the tables of the CIMS database in creation order.
func CIMSTables() []interface{} {
	return []interface{}{&Member{}, &Credential{}, &GroupMapping{}}
}

// ProjectTables returns the tables of the Project database in creation order.
func ProjectTables() []interface{} {
	return []interface{}{&Team{}, &Event{}, &Venue{}, &Equipment{}, &EquipmentLog{}, &Player{}, &Match{}}
}
