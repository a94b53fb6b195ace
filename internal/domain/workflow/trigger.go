package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerUpdate    Trigger = "UPDATE"
	TriggerSubmit    Trigger = "SUBMIT"
	TriggerApprove   Trigger = "APPROVE"
	TriggerReject    Trigger = "REJECT"
	TriggerReimburse Trigger = "REIMBURSE"
	TriggerDelete    Trigger = "DELETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
