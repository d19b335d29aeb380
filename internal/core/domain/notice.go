package domain

// NoticeType is the kind of a transient notice.
type NoticeType string

const (
	// NoticeSuccess marks a successful action.
	NoticeSuccess NoticeType = "success"
	// NoticeError marks a failed action.
	NoticeError NoticeType = "danger"
)

// Notice is a transient message shown on the next rendered page.
type Notice struct {
	Type    NoticeType `json:"type"`
	Message string     `json:"message"`
	Debug   string     `json:"debug,omitempty"`
}
