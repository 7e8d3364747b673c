package models

// SelectQuery is an admin ad-hoc read of one table. Identifiers are checked
// against the live schema before any SQL is built; Value is always bound.
type SelectQuery struct {
	Table      string   `json:"table"`
	Columns    []string `json:"columns"`
	Where      string   `json:"where"`
	Operator   string   `json:"whereOperator"`
	Value      string   `json:"whereValue"`
	OrderBy    string   `json:"orderBy"`
	Descending bool     `json:"descending"`
}

// QueryResult holds rows as text; NULL cells are nil.
type QueryResult struct {
	Columns []string    `json:"columns"`
	Rows    [][]*string `json:"rows"`
}
