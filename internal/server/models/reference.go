package models

// DepartmentOther is the synthetic department for books outside any listed
// department. It is never stored in the departments table.
const DepartmentOther = -1

type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Condition struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Platform struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SearchSort is a named ordering offered to users. SortKey selects the
// ORDER BY expression from a fixed set compiled into the search builder.
type SearchSort struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	SortKey string `json:"-"`
}
