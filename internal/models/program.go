package models

// Program is an admission program with a fixed seat capacity. The program
// set and capacities come from configuration and never change across
// snapshots.
type Program struct {
	ID    int64  `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Name  string `db:"name" json:"name"`
	Seats int    `db:"seats" json:"seats"`
}
