package models

type Stats struct {
	Users     int64   `json:"users"`
	Books     int64   `json:"books"`
	Sold      int64   `json:"sold"`
	Listed    int64   `json:"listed"`
	MoneyMade float64 `json:"moneyMade"`
	Tables    int64   `json:"tables"`
	Rows      int64   `json:"rows"`
	Reports   int64   `json:"reports"`
}

type TableRowCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}
