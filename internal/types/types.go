package types

// Alert is a one-shot threshold alert owned by a single chat. It is deleted
// as soon as the matching engine observes a price at or above Target.
type Alert struct {
	ID        string  `json:"id"`
	ChatID    int64   `json:"chat_id"`
	Symbol    string  `json:"symbol"`
	Target    float64 `json:"target"`
	CreatedAt string  `json:"created_at"`
}

// UserProfile lives in exactly one of the pending or confirmed stores,
// never both.
type UserProfile struct {
	ChatID  int64  `json:"chat_id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

// Registration steps, one prompt per field.
const (
	StepName = iota
	StepSurname
	StepPhone
)

// RegistrationProgress is the per-chat cursor kept between /start and
// submission, plus the field values collected so far.
type RegistrationProgress struct {
	ChatID  int64  `json:"chat_id"`
	Step    int    `json:"step"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}
