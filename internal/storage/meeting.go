package storage

// Meeting is the sole persisted entity. ID is assigned by the store on
// insert and never changes afterwards.
type Meeting struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	Title     string    `db:"title" json:"title"`
	Date      Date      `db:"date" json:"date"`
	StartTime TimeOfDay `db:"start_time" json:"startTime"`
	EndTime   TimeOfDay `db:"end_time" json:"endTime"`
}
