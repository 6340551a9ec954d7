package domain

const (
	MailTypeCreateUser        = "create_user"
	MailTypeScheduleGenerated = "schedule_generated"
	MailTypeScheduleFailed    = "schedule_failed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type GenerationMailData struct {
	FullName      string `json:"fullName"`
	JobID         string `json:"jobID"`
	State         string `json:"state"`
	Score         string `json:"score"`
	Feasible      bool   `json:"feasible"`
	Polls         int    `json:"polls"`
	UnfilledSlots int    `json:"unfilledSlots"`
	Error         string `json:"error,omitempty"`
}
