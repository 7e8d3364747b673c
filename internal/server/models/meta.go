package models

// Keys of the meta table.
const (
	MetaMaxBooks      = "Max books"
	MetaMaxReports    = "Max reports"
	MetaBooksPerQuery = "Books per query"
	MetaVersion       = "Version"
	MetaTerms         = "Terms and Conditions"
	MetaAlert         = "Alert"
	MetaAlertTimeout  = "Alert timeout"
)
