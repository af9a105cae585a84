package fallback

// User is an exported member record keyed by the member UUID.
type User struct {
	ID         string  `json:"id"`
	CardSerial string  `json:"card_serial"`
	UUID       string  `json:"uuid"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
}

// Tool is an exported badge record. Every device field carries the tool id.
type Tool struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	BadgeName         string `json:"badge_name"`
	ReaderDeviceID    string `json:"reader_device_id"`
	ActivatorDeviceID string `json:"activator_device_id"`
	DeviceID          string `json:"device_id"`
}

// Assignment is a (user id, tool id) pair, encoded as a two element array.
type Assignment [2]string

// Snapshot is the complete export. Collections are never nil so they encode as JSON arrays.
type Snapshot struct {
	Users       []User       `json:"users"`
	Tools       []Tool       `json:"tools"`
	Assignments []Assignment `json:"assignments"`
}

func (s *Snapshot) normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Tools == nil {
		s.Tools = []Tool{}
	}
	if s.Assignments == nil {
		s.Assignments = []Assignment{}
	}
}
